package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/service"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(s service.AccountService) *AccountHandler {
	return &AccountHandler{s: s}
}

func (h *AccountHandler) ListGroups(c *fiber.Ctx) error {
	groups, err := h.s.ListGroups(c.Context(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	if groups == nil {
		groups = []*models.Group{}
	}
	return c.Status(fiber.StatusOK).JSON(groups)
}

type groupRequest struct {
	Name string `json:"name"`
}

func (h *AccountHandler) CreateGroup(c *fiber.Ctx) error {
	var req groupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	group, err := h.s.CreateGroup(c.Context(), GetUserID(c), req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.s.ListAccounts(c.Context(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var in service.AccountInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	account, err := h.s.CreateAccount(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

type importRequest struct {
	GroupName          string `json:"group_name"`
	AccountDisplayName string `json:"account_display_name"`
}

func (h *AccountHandler) ImportLegacy(c *fiber.Ctx) error {
	var req importRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	res, err := h.s.ImportLegacy(c.Context(), GetUserID(c), req.GroupName, req.AccountDisplayName)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}
