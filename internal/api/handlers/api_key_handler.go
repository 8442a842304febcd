package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/service"
)

type ApiKeyHandler struct {
	s service.ApiKeyService
}

func NewApiKeyHandler(s service.ApiKeyService) *ApiKeyHandler {
	return &ApiKeyHandler{s: s}
}

func (h *ApiKeyHandler) CreateApiKey(c *fiber.Ctx) error {
	key, err := h.s.Create(c.Context(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(key)
}

func (h *ApiKeyHandler) ListApiKeys(c *fiber.Ctx) error {
	keys, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	if keys == nil {
		keys = []*models.ApiKey{}
	}
	return c.Status(fiber.StatusOK).JSON(keys)
}

func (h *ApiKeyHandler) RemoveApiKey(c *fiber.Ctx) error {
	keyID := int64(c.QueryInt("id"))
	if err := h.s.RemoveAPIKey(c.Context(), GetUserID(c), keyID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
