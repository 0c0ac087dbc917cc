package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/onedaypage/backend/internal/middleware"
	"github.com/onedaypage/backend/internal/models"
	"github.com/onedaypage/backend/pkg/logger"
	"github.com/onedaypage/backend/pkg/utils"
	"gorm.io/gorm"
)

// MessagesHandler manages guest messages. Anyone can post to a live page;
// only the creator (proven by the edit token) can remove messages.
type MessagesHandler struct {
	DB *gorm.DB
}

func NewMessagesHandler(db *gorm.DB) *MessagesHandler {
	return &MessagesHandler{DB: db}
}

type createMessageRequest struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

func (h *MessagesHandler) Create(c *fiber.Ctx) error {
	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	var req createMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Author == "" || len(req.Author) > 100 {
		return utils.Error(c, fiber.StatusBadRequest, "author must be 1-100 characters")
	}
	if req.Body == "" || len(req.Body) > 2000 {
		return utils.Error(c, fiber.StatusBadRequest, "message must be 1-2000 characters")
	}

	var page models.Page
	if err := h.DB.Where("id = ? AND expires_at > ?", pageID, time.Now()).First(&page).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "page not found")
		}
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed loading page, try again")
	}

	message := models.Message{
		PageID: page.ID,
		Author: req.Author,
		Body:   req.Body,
	}
	if err := h.DB.Create(&message).Error; err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed saving message, try again")
	}

	logger.InfoWithPage(page.ID.String(), "message_posted", map[string]interface{}{
		"message_id": message.ID.String(),
	})

	return utils.Success(c, fiber.StatusCreated, message)
}

func (h *MessagesHandler) List(c *fiber.Ctx) error {
	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	var messages []models.Message
	if err := h.DB.Where("page_id = ?", pageID).Order("created_at ASC").Find(&messages).Error; err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed loading messages, try again")
	}

	return utils.Success(c, fiber.StatusOK, messages)
}

func (h *MessagesHandler) Delete(c *fiber.Ctx) error {
	pageID := middleware.PageID(c)

	messageID, err := parseUUID(c.Params("messageId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid message id")
	}

	res := h.DB.Where("id = ? AND page_id = ?", messageID, pageID).Delete(&models.Message{})
	if res.Error != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed deleting message, try again")
	}
	if res.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusNotFound, "message not found")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
