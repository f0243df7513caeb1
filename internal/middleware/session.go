package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/coinvest/coinvest/internal/auth"
)

// SessionChecker reports whether a usable login is stored.
type SessionChecker interface {
	Authenticated(ctx context.Context) bool
}

// RequireSession rejects requests while no one is logged in on this device.
func RequireSession(sessions SessionChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessions.Authenticated(c.UserContext()) {
			return auth.ErrNotAuthenticated
		}
		return c.Next()
	}
}
