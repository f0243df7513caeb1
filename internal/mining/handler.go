package mining

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the mining actions. live may be nil.
type Handler struct {
	service *Service
	live    *Countdown
}

func NewHandler(service *Service, live *Countdown) *Handler {
	return &Handler{service: service, live: live}
}

func (h *Handler) Start(c *fiber.Ctx) error {
	return h.act(c, h.service.Start)
}

func (h *Handler) Stop(c *fiber.Ctx) error {
	return h.act(c, h.service.Stop)
}

func (h *Handler) Claim(c *fiber.Ctx) error {
	return h.act(c, h.service.ClaimRewards)
}

func (h *Handler) act(c *fiber.Ctx, fn func(context.Context) (State, error)) error {
	st, err := fn(c.UserContext())
	if err != nil {
		return err
	}
	if h.live != nil {
		h.live.Apply(st)
	}
	return c.Status(http.StatusOK).JSON(st)
}
