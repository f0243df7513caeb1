package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/coinvest/coinvest/internal/auth"
)

// RegisterAuthRoutes wires the sign-in and password recovery endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/register", h.Register)
	group.Post("/logout", h.Logout)

	r.Post("/password/forgot", h.ForgotPassword)
	r.Post("/password/reset", h.ResetPassword)
}

// RegisterAccountRoutes wires endpoints for the logged in user.
func RegisterAccountRoutes(r fiber.Router, h *auth.Handler) {
	r.Post("/profile", h.UpdateProfile)
}
