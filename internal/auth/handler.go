package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/coinvest/coinvest/internal/forms"
)

// Handler exposes the account actions to the UI shell.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type loginBody struct {
	forms.Login
	OTP string `json:"otp"`
}

// Login signs in. 202 means the backend wants an OTP and the request
// should be repeated with it.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginBody
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Login(c.UserContext(), req.Login, req.OTP)
	if err != nil {
		return err
	}
	if res.OTPRequired {
		return c.Status(http.StatusAccepted).JSON(fiber.Map{"otp_required": true})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": res.User})
}

// Register creates the account and signs in.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req forms.Signup
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"user": res.User})
}

// Logout always succeeds locally.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.svc.Logout(c.UserContext()); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}

func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var req forms.ForgotPassword
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ForgotPassword(c.UserContext(), req); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"status": "code_sent"})
}

func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req forms.ResetPassword
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ResetPassword(c.UserContext(), req); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "password_reset"})
}

// UpdateProfile saves the profile form.
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var req forms.Profile
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.svc.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(user)
}
