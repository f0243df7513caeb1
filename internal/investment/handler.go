package investment

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/coinvest/coinvest/internal/forms"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Invest submits the invest form.
func (h *Handler) Invest(c *fiber.Ctx) error {
	var req forms.Invest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	inv, err := h.service.Invest(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(inv)
}
