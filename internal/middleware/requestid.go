package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/coinvest/coinvest/internal/apiclient"
)

// RequestIDHeader carries the request id in both directions and names the
// Fiber local holding it.
const RequestIDHeader = apiclient.HeaderRequestID

// RequestID tags each request with an id and forwards it to the backend
// calls made while serving it.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(RequestIDHeader, reqID)
		c.Locals(RequestIDHeader, reqID)
		c.SetUserContext(apiclient.WithRequestID(c.UserContext(), reqID))

		return c.Next()
	}
}
