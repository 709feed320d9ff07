package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/DemoMacro/jumpstats/internal/app/service"
)

// SessionKey is the fiber locals key under which RequireSession stores the
// authenticated service.Session.
const SessionKey = "session"

// RequireSession validates the Bearer token and rejects unauthenticated
// requests. Tokens are HS256 with the user id in the subject claim.
func RequireSession(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := sessionFromRequest(c, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or missing token",
			})
		}
		c.Locals(SessionKey, session)
		return c.Next()
	}
}

// OptionalSession attaches a session when a valid token is presented but
// lets anonymous requests through. A malformed token is still rejected so
// callers notice broken credentials instead of silently losing ownership.
func OptionalSession(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		session, err := sessionFromRequest(c, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}
		c.Locals(SessionKey, session)
		return c.Next()
	}
}

// SessionFrom extracts the session stored by RequireSession.
func SessionFrom(c *fiber.Ctx) (service.Session, bool) {
	session, ok := c.Locals(SessionKey).(service.Session)
	return session, ok
}

func sessionFromRequest(c *fiber.Ctx, secret string) (service.Session, error) {
	header := c.Get(fiber.HeaderAuthorization)
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return service.Session{}, jwt.ErrTokenMalformed
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return service.Session{}, err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return service.Session{}, jwt.ErrTokenInvalidClaims
	}

	session := service.Session{UserID: claims.Subject}
	if len(claims.Audience) > 0 {
		session.Role = claims.Audience[0]
	}
	return session, nil
}
