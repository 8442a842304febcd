package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/service"
)

type ItemHandler struct {
	s  service.ItemService
	ps service.PublishService
	bs service.BulkService
}

func NewItemHandler(s service.ItemService, ps service.PublishService, bs service.BulkService) *ItemHandler {
	return &ItemHandler{s: s, ps: ps, bs: bs}
}

func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	userID := GetUserID(c)

	in := service.ItemInput{
		GroupID:   c.FormValue("group_id"),
		AccountID: c.FormValue("account_id"),
		Text:      c.FormValue("text"),
		Status:    models.ItemStatus(c.FormValue("status")),
	}
	if raw := c.FormValue("scheduled_for"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, "scheduled_for must be an RFC 3339 timestamp")
		}
		in.ScheduledFor = &at
	}

	var files []service.FileUpload
	if form, err := c.MultipartForm(); err == nil {
		files, err = readFiles(form.File["files"])
		if err != nil {
			slog.Error(err.Error())
			return badRequest(c, "Unable to read files")
		}
	}

	item, err := h.s.Create(c.Context(), userID, in, files)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *ItemHandler) ListItems(c *fiber.Ctx) error {
	userID := GetUserID(c)

	if id := c.Query("id"); id != "" {
		item, err := h.s.Get(c.Context(), userID, id)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(item)
	}

	items, err := h.s.List(c.Context(), userID, models.ItemStatus(c.Query("status")))
	if err != nil {
		return writeError(c, err)
	}
	if items == nil {
		items = []*models.ScheduledItem{}
	}
	return c.Status(fiber.StatusOK).JSON(items)
}

type statusRequest struct {
	ItemID string            `json:"item_id"`
	Status models.ItemStatus `json:"status"`
}

func (h *ItemHandler) UpdateStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	item, err := h.s.UpdateStatus(c.Context(), GetUserID(c), req.ItemID, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(item)
}

type contentRequest struct {
	ItemID string `json:"item_id"`
	service.ContentUpdate
}

func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	item, err := h.s.UpdateContent(c.Context(), GetUserID(c), req.ItemID, req.ContentUpdate)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(item)
}

func (h *ItemHandler) RemoveItem(c *fiber.Ctx) error {
	if err := h.s.Remove(c.Context(), GetUserID(c), c.Query("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

type publishRequest struct {
	ItemID string `json:"item_id"`
}

// PublishItem is the manual publish entry point.
func (h *ItemHandler) PublishItem(c *fiber.Ctx) error {
	var req publishRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.ps.PublishManual(c.Context(), GetUserID(c), req.ItemID); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Item published",
		"item_id": req.ItemID,
	})
}

func (h *ItemHandler) NextSlot(c *fiber.Ctx) error {
	slot, err := h.s.NextSlot(c.Context(), GetUserID(c), c.Query("group_id"), c.Query("account_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"scheduled_for": slot,
	})
}

func (h *ItemHandler) BulkSchedule(c *fiber.Ctx) error {
	userID := GetUserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return badRequest(c, "Unable to parse form")
	}
	files, err := readFiles(form.File["files"])
	if err != nil {
		slog.Error(err.Error())
		return badRequest(c, "Unable to read files")
	}

	req := service.BulkRequest{
		UserID:    userID,
		GroupID:   c.FormValue("group_id"),
		AccountID: c.FormValue("account_id"),
		Files:     files,
	}

	var progress []service.BulkProgress
	res, err := h.bs.ScheduleBatch(c.Context(), req, func(p service.BulkProgress) {
		progress = append(progress, p)
		slog.Debug("bulk progress", "user_id", userID, "file", p.FileName,
			"completed", p.Completed, "failed", p.Failed, "total", p.Total)
	})
	if err != nil {
		return writeError(c, err)
	}
	if progress == nil {
		progress = []service.BulkProgress{}
	}
	return c.Status(fiber.StatusOK).JSON(bulkResponse{BulkResult: res, Progress: progress})
}

// bulkResponse is the batch result followed by one progress event per file,
// in processing order.
type bulkResponse struct {
	*service.BulkResult
	Progress []service.BulkProgress `json:"progress"`
}
