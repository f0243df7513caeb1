package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/coinvest/coinvest/internal/funding"
	"github.com/coinvest/coinvest/internal/investment"
	"github.com/coinvest/coinvest/internal/kyc"
	"github.com/coinvest/coinvest/internal/mining"
)

// RegisterFundingRoutes wires deposit and withdrawal endpoints.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler) {
	r.Post("/deposits", h.CreateDeposit)
	r.Post("/withdrawals/otp", h.RequestWithdrawalOTP)
	r.Post("/withdrawals", h.Withdraw)
}

func RegisterInvestmentRoutes(r fiber.Router, h *investment.Handler) {
	r.Post("/investments", h.Invest)
}

func RegisterMiningRoutes(r fiber.Router, h *mining.Handler) {
	group := r.Group("/mining")
	group.Post("/start", h.Start)
	group.Post("/stop", h.Stop)
	group.Post("/claim", h.Claim)
}

func RegisterKYCRoutes(r fiber.Router, h *kyc.Handler) {
	r.Post("/kyc/upload", h.Upload)
}
