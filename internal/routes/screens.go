package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/coinvest/coinvest/internal/notification"
	"github.com/coinvest/coinvest/internal/screens"
)

// RegisterScreenRoutes wires the read-only screen views. The about, plans
// and chains screens are public; the rest go through guard when set.
func RegisterScreenRoutes(r fiber.Router, h *screens.Handler, guard fiber.Handler) {
	group := r.Group("/screens")
	group.Get("/about", h.About)
	group.Get("/plans", h.Plans)
	group.Get("/chains", h.Chains)
	group.Get("/chains/:id", h.Chain)

	private := func(path string, handler fiber.Handler) {
		if guard != nil {
			group.Get(path, guard, handler)
			return
		}
		group.Get(path, handler)
	}
	private("/dashboard", h.Dashboard)
	private("/mining", h.Mining)
	private("/investments", h.Investments)
	private("/deposits", h.Deposits)
	private("/withdrawals", h.Withdrawals)
	private("/transactions", h.Transactions)
	private("/transactions/:id", h.Transaction)
	private("/kyc", h.KYC)
	private("/loyalty", h.Loyalty)
	private("/referrals", h.Referrals)
	private("/profile", h.Profile)
}

// RegisterNotificationRoutes exposes the pending toasts. Reading drains them.
func RegisterNotificationRoutes(r fiber.Router, feed *notification.Feed) {
	r.Get("/notifications", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"notifications": feed.Drain()})
	})
}
