package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/DemoMacro/jumpstats/internal/app/apperror"
)

// writeError maps a service error onto the HTTP response. Only the public
// message leaves the process; the internal reason and wrapped cause go to
// the log.
func writeError(logger *zap.Logger, c *fiber.Ctx, err error) error {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal(err)
	}

	fields := []zap.Field{
		zap.Int("status", appErr.Status),
		zap.String("path", c.Path()),
	}
	if appErr.Reason != "" {
		fields = append(fields, zap.String("reason", appErr.Reason))
	}
	if appErr.Err != nil {
		fields = append(fields, zap.Error(appErr.Err))
	}

	if appErr.Status >= fiber.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Debug("request rejected", fields...)
	}

	return c.Status(appErr.Status).JSON(fiber.Map{
		"error": appErr.Message,
	})
}

func errUnauthenticated() error {
	return apperror.Unauthorized("authentication required")
}

func errMissingParam(name string) error {
	return apperror.BadRequest(name + " is required")
}

func errBadParam(name string) error {
	return apperror.BadRequest(name + " is not a valid RFC 3339 timestamp")
}
