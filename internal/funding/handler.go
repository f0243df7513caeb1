package funding

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/coinvest/coinvest/internal/forms"
)

// Handler exposes the deposit and withdrawal forms.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateDeposit submits the deposit form.
func (h *Handler) CreateDeposit(c *fiber.Ctx) error {
	var req forms.Deposit
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	dep, err := h.service.CreateDeposit(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dep)
}

// RequestWithdrawalOTP sends the email code needed by Withdraw.
func (h *Handler) RequestWithdrawalOTP(c *fiber.Ctx) error {
	if err := h.service.RequestWithdrawalOTP(c.UserContext()); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"status": "code_sent"})
}

// Withdraw submits the withdrawal form.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req forms.Withdraw
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	wd, err := h.service.Withdraw(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(wd)
}
