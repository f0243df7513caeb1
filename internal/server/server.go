package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/coinvest/coinvest/internal/apiclient"
	"github.com/coinvest/coinvest/internal/app"
	"github.com/coinvest/coinvest/internal/auth"
	"github.com/coinvest/coinvest/internal/chains"
	"github.com/coinvest/coinvest/internal/forms"
	"github.com/coinvest/coinvest/internal/mining"
	"github.com/coinvest/coinvest/internal/routes"
)

// Server wraps the Fiber application serving the UI shell.
type Server struct {
	app    *fiber.App
	stack  *app.App
	logger *slog.Logger
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(stack *app.App, logger *slog.Logger) (*Server, error) {
	f := fiber.New(fiber.Config{
		AppName:               stack.Config.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: !stack.Config.IsDev(),
		ErrorHandler:          ErrorHandler,
	})

	if err := routes.Setup(f, routes.Deps{Cfg: stack.Config, App: stack, Logger: logger}); err != nil {
		return nil, err
	}

	return &Server{app: f, stack: stack, logger: logger}, nil
}

// App exposes the Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.stack.Config.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// ErrorHandler turns service errors into JSON responses. Form errors keep
// their per-field messages so the UI can show them inline.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		formErr  *forms.ValidationError
		apiErr   *apiclient.Error
		fiberErr *fiber.Error
	)
	switch {
	case errors.As(err, &formErr):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": formErr.Fields,
		})
	case errors.As(err, &apiErr):
		body := fiber.Map{"error": apiErr.Message, "kind": apiErr.Kind}
		if len(apiErr.Fields) > 0 {
			body["fields"] = apiErr.Fields
		}
		return c.Status(apiErr.HTTPStatus()).JSON(body)
	case errors.Is(err, auth.ErrNotAuthenticated):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	case errors.Is(err, chains.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, mining.ErrUnknownStatus):
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "Unexpected response from server."})
	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	default:
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
