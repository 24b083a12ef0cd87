// Package chat - переписка сторон внутри конкретного обмена.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/events"
	"github.com/rajivgeraev/bookswap-api/internal/logging"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// Максимальная длина сообщения в символах
const maxMessageLength = 2000

// Store - то, что сервису сообщений нужно от хранилища
type Store interface {
	GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	AppendMessage(ctx context.Context, msg *models.TradeMessage) error
	ListMessages(ctx context.Context, tradeID uuid.UUID, page models.MessagePage) ([]models.TradeMessage, error)
}

// ChatService представляет сервис для работы с сообщениями обменов
type ChatService struct {
	store     Store
	publisher events.Publisher
	logger    logging.Logger
	now       func() time.Time
}

// Option настраивает ChatService
type Option func(*ChatService)

func WithLogger(logger logging.Logger) Option {
	return func(s *ChatService) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *ChatService) { s.publisher = publisher }
}

func WithClock(now func() time.Time) Option {
	return func(s *ChatService) { s.now = now }
}

// NewChatService создает новый экземпляр ChatService
func NewChatService(store Store, opts ...Option) *ChatService {
	s := &ChatService{
		store:  store,
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.LogPublisher{Logger: s.logger}
	}
	return s
}

// SendMessage добавляет сообщение стороны обмена. Статус обмена не важен:
// переписка возможна и после завершения.
func (s *ChatService) SendMessage(ctx context.Context, senderID, tradeID uuid.UUID, text string) (*models.TradeMessage, error) {
	trade, err := s.memberTrade(ctx, senderID, tradeID, "send message")
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation(tradeID, "text", "message text must not be empty")
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return nil, apperr.Validation(tradeID, "text", "message text is too long")
	}

	msg := &models.TradeMessage{
		ID:        uuid.New(),
		TradeID:   tradeID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, s.fail("send message", err)
	}

	s.logger.Debug("trade message sent", "trade_id", tradeID, "message_id", msg.ID, "sender_id", senderID)
	s.publisher.Publish(events.Event{
		Type:        events.EventMessageSent,
		TradeID:     tradeID,
		Status:      string(trade.Status),
		ActorID:     senderID,
		RequesterID: trade.RequesterID,
		RecipientID: trade.RecipientID,
		MessageID:   msg.ID,
		Timestamp:   msg.CreatedAt,
	})
	return msg, nil
}

// ListMessages возвращает сообщения обмена по возрастанию времени создания
func (s *ChatService) ListMessages(ctx context.Context, callerID, tradeID uuid.UUID, page models.MessagePage) ([]models.TradeMessage, error) {
	if page.Limit < 0 {
		return nil, apperr.Validation(tradeID, "limit", "limit must not be negative")
	}
	if _, err := s.memberTrade(ctx, callerID, tradeID, "read messages"); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, tradeID, page)
	if err != nil {
		return nil, s.fail("list messages", err)
	}
	if messages == nil {
		messages = []models.TradeMessage{}
	}
	return messages, nil
}

func (s *ChatService) memberTrade(ctx context.Context, userID, tradeID uuid.UUID, operation string) (*models.Trade, error) {
	trade, err := s.store.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, s.fail(operation, err)
	}
	if !trade.IsParty(userID) {
		return nil, apperr.Permission(tradeID, userID, operation)
	}
	return trade, nil
}

func (s *ChatService) fail(op string, err error) error {
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrValidation) {
		return err
	}
	s.logger.Error("message storage failure", "op", op, "error", err)
	return &apperr.TransientError{Op: op, Err: err}
}
