package trade

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/middleware"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

// Handler - HTTP-обёртка над TradeService
type Handler struct {
	service *TradeService
}

func NewHandler(service *TradeService) *Handler {
	return &Handler{service: service}
}

type createTradeRequest struct {
	RecipientID     string `json:"recipient_id" validate:"required,uuid"`
	RequestedBookID string `json:"requested_book_id" validate:"required,uuid"`
	OfferedBookID   string `json:"offered_book_id" validate:"omitempty,uuid"`
	Message         string `json:"message" validate:"max=2000"`
}

type acceptTradeRequest struct {
	TradeType            string `json:"trade_type" validate:"required,oneof=swap donation"`
	RecipientOfferedBook string `json:"recipient_offered_book" validate:"omitempty,uuid"`
}

// CreateTrade создает новое предложение обмена
func (h *Handler) CreateTrade(c fiber.Ctx) error {
	callerID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req createTradeRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Неверный формат данных")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	offeredBookID, err := utils.ParseOptionalUUID("offered_book_id", req.OfferedBookID)
	if err != nil {
		return err
	}

	trade, err := h.service.CreateTrade(c.Context(), callerID, CreateTradeInput{
		RecipientID:     uuid.MustParse(req.RecipientID),
		RequestedBookID: uuid.MustParse(req.RequestedBookID),
		OfferedBookID:   offeredBookID,
		Message:         req.Message,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"trade": trade})
}

// ListTrades возвращает обмены пользователя в выбранном срезе
func (h *Handler) ListTrades(c fiber.Ctx) error {
	callerID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	filter := models.TradeFilter{View: models.TradeView(c.Query("view", string(models.ViewAll)))}
	if status := c.Query("status"); status != "" {
		s := models.Status(status)
		filter.Status = &s
	}
	if tradeType := c.Query("trade_type"); tradeType != "" {
		tt := models.TradeType(tradeType)
		filter.TradeType = &tt
	}
	if filter.Page.Limit, err = queryInt(c, "limit"); err != nil {
		return err
	}
	if filter.Page.Offset, err = queryInt(c, "offset"); err != nil {
		return err
	}

	trades, err := h.service.VisibleTrades(c.Context(), callerID, filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"trades": trades,
		"count":  len(trades),
	})
}

// GetTrade возвращает обмен с данными участников и книг
func (h *Handler) GetTrade(c fiber.Ctx) error {
	callerID, tradeID, err := callerAndTrade(c)
	if err != nil {
		return err
	}

	details, err := h.service.GetTradeDetails(c.Context(), callerID, tradeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"trade": details})
}

// AcceptTrade принимает предложение обмена
func (h *Handler) AcceptTrade(c fiber.Ctx) error {
	callerID, tradeID, err := callerAndTrade(c)
	if err != nil {
		return err
	}

	var req acceptTradeRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Неверный формат данных")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	recipientOfferedBookID, err := utils.ParseOptionalUUID(fieldRecipientOfferedBook, req.RecipientOfferedBook)
	if err != nil {
		return err
	}

	trade, err := h.service.AcceptTrade(c.Context(), callerID, tradeID, AcceptTradeInput{
		TradeType:              models.TradeType(req.TradeType),
		RecipientOfferedBookID: recipientOfferedBookID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"trade": trade})
}

// ConfirmTrade подтверждает обмен от имени вызывающего
func (h *Handler) ConfirmTrade(c fiber.Ctx) error {
	return h.transition(c, h.service.ConfirmTrade)
}

// RejectTrade отклоняет предложение обмена
func (h *Handler) RejectTrade(c fiber.Ctx) error {
	return h.transition(c, h.service.RejectTrade)
}

// CancelTrade отменяет своё предложение обмена
func (h *Handler) CancelTrade(c fiber.Ctx) error {
	return h.transition(c, h.service.CancelTrade)
}

func (h *Handler) transition(c fiber.Ctx, op func(ctx context.Context, callerID, tradeID uuid.UUID) (*models.Trade, error)) error {
	callerID, tradeID, err := callerAndTrade(c)
	if err != nil {
		return err
	}

	trade, err := op(c.Context(), callerID, tradeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"trade": trade})
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

func queryInt(c fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation(uuid.Nil, key, "must be a non-negative integer")
	}
	return n, nil
}
