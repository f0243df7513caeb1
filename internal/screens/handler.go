package screens

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Handler serves each screen as JSON.
type Handler struct {
	screens *Screens
}

func NewHandler(screens *Screens) *Handler {
	return &Handler{screens: screens}
}

func (h *Handler) Dashboard(c *fiber.Ctx) error {
	view, err := h.screens.Dashboard(c.UserContext())
	return respond(c, view, err)
}

func (h *Handler) Mining(c *fiber.Ctx) error {
	view, err := h.screens.Mining(c.UserContext())
	return respond(c, view, err)
}

func (h *Handler) Plans(c *fiber.Ctx) error {
	view, err := h.screens.Plans(c.UserContext())
	return respond(c, fiber.Map{"plans": view}, err)
}

func (h *Handler) Investments(c *fiber.Ctx) error {
	view, err := h.screens.Investments(c.UserContext())
	return respond(c, fiber.Map{"investments": view}, err)
}

func (h *Handler) Deposits(c *fiber.Ctx) error {
	view, err := h.screens.Deposits(c.UserContext())
	return respond(c, view, err)
}

func (h *Handler) Withdrawals(c *fiber.Ctx) error {
	view, err := h.screens.Withdrawals(c.UserContext())
	return respond(c, view, err)
}

// Transactions accepts an optional ?type= filter.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	view, err := h.screens.Transactions(c.UserContext(), c.Query("type"))
	return respond(c, fiber.Map{"transactions": view}, err)
}

func (h *Handler) Transaction(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid transaction id")
	}
	view, err := h.screens.Transaction(c.UserContext(), id)
	return respond(c, view, err)
}

func (h *Handler) Chains(c *fiber.Ctx) error {
	view, err := h.screens.Chains(c.UserContext())
	return respond(c, fiber.Map{"chains": view}, err)
}

func (h *Handler) Chain(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid chain id")
	}
	view, err := h.screens.Chain(c.UserContext(), id)
	return respond(c, view, err)
}

func (h *Handler) KYC(c *fiber.Ctx) error {
	return respond(c, h.screens.KYC(c.UserContext()), nil)
}

func (h *Handler) Loyalty(c *fiber.Ctx) error {
	view, err := h.screens.Loyalty(c.UserContext())
	return respond(c, view, err)
}

func (h *Handler) Referrals(c *fiber.Ctx) error {
	view, err := h.screens.Referrals(c.UserContext())
	return respond(c, view, err)
}

func (h *Handler) Profile(c *fiber.Ctx) error {
	view, err := h.screens.Profile(c.UserContext())
	return respond(c, view, err)
}

func (h *Handler) About(c *fiber.Ctx) error {
	view, err := h.screens.About(c.UserContext())
	return respond(c, view, err)
}

func respond(c *fiber.Ctx, view any, err error) error {
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(view)
}
