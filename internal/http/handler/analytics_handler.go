package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/DemoMacro/jumpstats/internal/app/repository"
	"github.com/DemoMacro/jumpstats/internal/app/service"
	"github.com/DemoMacro/jumpstats/internal/http/middleware"
)

// AnalyticsDeps groups dependencies required by the analytics handlers.
type AnalyticsDeps struct {
	Logger     *zap.Logger
	Analytics  *service.AnalyticsService
	Links      *service.LinkService
	Authorizer *service.Authorizer
}

// AnalyticsHandler serves aggregate and raw click queries for link owners.
type AnalyticsHandler struct {
	logger     *zap.Logger
	analytics  *service.AnalyticsService
	links      *service.LinkService
	authorizer *service.Authorizer
}

// NewAnalyticsHandler creates an analytics handler with the provided dependencies.
func NewAnalyticsHandler(deps AnalyticsDeps) *AnalyticsHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{
		logger:     logger,
		analytics:  deps.Analytics,
		links:      deps.Links,
		authorizer: deps.Authorizer,
	}
}

// Register wires analytics routes onto the provided (authenticated) router.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("/link/analytics", h.Analytics)
	router.Get("/link/events", h.Events)
}

// Analytics handles GET /link/analytics. Without groupBy it returns aggregate
// counts; groupBy=timeseries returns bucketed counts; any other groupBy is a
// dimension breakdown.
func (h *AnalyticsHandler) Analytics(c *fiber.Ctx) error {
	filter, err := h.authorizedFilter(c)
	if err != nil {
		return writeError(h.logger, c, err)
	}

	ctx := c.UserContext()
	// count is both the default and an explicit enum value.
	groupBy := c.Query("groupBy")
	switch {
	case groupBy == "" || groupBy == "count":
		result, err := h.analytics.Count(ctx, *filter)
		if err != nil {
			return writeError(h.logger, c, err)
		}
		return c.JSON(result)

	case groupBy == "timeseries":
		granularity := service.Granularity(c.Query("granularity"))
		result, err := h.analytics.Timeseries(ctx, *filter, granularity)
		if err != nil {
			return writeError(h.logger, c, err)
		}
		return c.JSON(result)

	default:
		rows, err := h.analytics.Breakdown(ctx, *filter, groupBy)
		if err != nil {
			return writeError(h.logger, c, err)
		}
		return c.JSON(fiber.Map{"data": rows})
	}
}

// Events handles GET /link/events, listing recent clicks without the
// sensitive columns.
func (h *AnalyticsHandler) Events(c *fiber.Ctx) error {
	filter, err := h.authorizedFilter(c)
	if err != nil {
		return writeError(h.logger, c, err)
	}

	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	events, total, err := h.analytics.Events(c.UserContext(), *filter, limit, offset)
	if err != nil {
		return writeError(h.logger, c, err)
	}
	return c.JSON(fiber.Map{
		"events": events,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// authorizedFilter parses the common query parameters and confirms the
// session owns the link being inspected.
func (h *AnalyticsHandler) authorizedFilter(c *fiber.Ctx) (*repository.EventFilter, error) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		return nil, errUnauthenticated()
	}

	linkID := c.Query("linkId")
	if linkID == "" {
		return nil, errMissingParam("linkId")
	}

	link, err := h.links.Get(c.UserContext(), linkID)
	if err != nil {
		return nil, err
	}
	if err := h.authorizer.CanAccessLink(c.UserContext(), session, link); err != nil {
		return nil, err
	}

	filter := &repository.EventFilter{LinkID: linkID}
	if start, err := parseTimeParam(c.Query("start")); err != nil {
		return nil, errBadParam("start")
	} else if start != nil {
		filter.Start = start
	}
	if end, err := parseTimeParam(c.Query("end")); err != nil {
		return nil, errBadParam("end")
	} else if end != nil {
		filter.End = end
	}
	return filter, nil
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
