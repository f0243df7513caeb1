package routes

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/coinvest/coinvest/internal/app"
	"github.com/coinvest/coinvest/internal/auth"
	"github.com/coinvest/coinvest/internal/config"
	"github.com/coinvest/coinvest/internal/funding"
	"github.com/coinvest/coinvest/internal/investment"
	"github.com/coinvest/coinvest/internal/kyc"
	"github.com/coinvest/coinvest/internal/middleware"
	"github.com/coinvest/coinvest/internal/mining"
	"github.com/coinvest/coinvest/internal/screens"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	App    *app.App
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(f *fiber.App, d Deps) error {
	a := d.App

	f.Use(recover.New())
	f.Use(middleware.RequestID())
	f.Use(middleware.Audit(d.Logger, middleware.NewGatewayMetrics(a.Registry)))
	if a.Redis != nil {
		f.Use(middleware.Idempotency(a.Redis, d.Cfg.IdempotencyTTL, sessionScope(a), d.Logger))
	}

	RegisterHealthRoutes(f, d)
	RegisterMetricsRoute(f, a.Registry)

	api := f.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals(middleware.RequestIDHeader).(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
	RegisterNotificationRoutes(api, a.Toasts)

	// Public routes
	rateLimiter := middleware.LoginRateLimit(a.Redis, d.Cfg.LoginRateLimit)
	RegisterAuthRoutes(api, auth.NewHandler(a.Auth), rateLimiter)
	guard := middleware.RequireSession(a.Auth)
	RegisterScreenRoutes(api, screens.NewHandler(a.Screens), guard)

	// Routes that need a stored session
	protected := api.Group("", guard)
	RegisterAccountRoutes(protected, auth.NewHandler(a.Auth))
	RegisterInvestmentRoutes(protected, investment.NewHandler(a.Investment))
	RegisterFundingRoutes(protected, funding.NewHandler(a.Funding))
	RegisterMiningRoutes(protected, mining.NewHandler(a.Mining, a.Live))
	RegisterKYCRoutes(protected, kyc.NewHandler(a.KYC))

	return nil
}

// sessionScope keys idempotent replays by the logged in user.
func sessionScope(a *app.App) middleware.IdempotencyScope {
	return func(c *fiber.Ctx) string {
		u, err := a.Session.User(c.UserContext())
		if err != nil {
			return ""
		}
		return strconv.FormatInt(u.ID, 10)
	}
}
