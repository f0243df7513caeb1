package kyc

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload accepts a multipart form with document_type and file.
func (h *Handler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "file is required")
	}
	f, err := header.Open()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	doc, err := h.service.Upload(c.UserContext(), c.FormValue("document_type"), header.Filename, header.Size, f)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(doc)
}
