package chat

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/middleware"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

// Handler - HTTP-обёртка над ChatService
type Handler struct {
	service *ChatService
}

func NewHandler(service *ChatService) *Handler {
	return &Handler{service: service}
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// GetMessages возвращает сообщения обмена
func (h *Handler) GetMessages(c fiber.Ctx) error {
	callerID, tradeID, err := callerAndTrade(c)
	if err != nil {
		return err
	}

	var page models.MessagePage
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		page.Limit, err = strconv.Atoi(raw)
		if err != nil || page.Limit < 0 {
			return apperr.Validation(tradeID, "limit", "must be a non-negative integer")
		}
	}
	if raw := strings.TrimSpace(c.Query("after")); raw != "" {
		after, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return apperr.Validation(tradeID, "after", "must be an RFC 3339 timestamp")
		}
		page.After = &after
	}

	messages, err := h.service.ListMessages(c.Context(), callerID, tradeID, page)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// SendMessage отправляет сообщение в переписку обмена
func (h *Handler) SendMessage(c fiber.Ctx) error {
	callerID, tradeID, err := callerAndTrade(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Неверный формат данных")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	msg, err := h.service.SendMessage(c.Context(), callerID, tradeID, req.Text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg})
}

func callerAndTrade(c fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	callerID, err := middleware.UserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.Validation(uuid.Nil, "id", "trade id must be a valid UUID")
	}
	return callerID, tradeID, nil
}
