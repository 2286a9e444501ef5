package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/blazehunter/internal/services"
)

const sessionContextKey = "currentSession"

// SessionResolver turns a bearer token into a live admin session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*services.Session, error)
}

// AuthMiddleware validates the session token and loads the admin session into
// context.
func AuthMiddleware(sessions SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		session, err := sessions.Resolve(c.UserContext(), parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "session expired")
		}

		c.Locals(sessionContextKey, session)
		return c.Next()
	}
}

// CurrentSession extracts the authenticated admin session from context.
func CurrentSession(c *fiber.Ctx) (*services.Session, bool) {
	session, ok := c.Locals(sessionContextKey).(*services.Session)
	return session, ok && session != nil
}

// RequireSenior rejects sessions without the senior role. The data service
// enforces the same rule on every mutation.
func RequireSenior() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := CurrentSession(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "session expired")
		}
		if !session.IsSenior() {
			return fiber.NewError(fiber.StatusForbidden, "senior admin role required")
		}
		return c.Next()
	}
}
