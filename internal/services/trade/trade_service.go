package trade

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/events"
	"github.com/rajivgeraev/bookswap-api/internal/logging"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// TradeService представляет сервис для работы с обменами
type TradeService struct {
	store        Store
	publisher    events.Publisher
	logger       logging.Logger
	now          func() time.Time
	retryOptions []RetryOption
}

// Option настраивает TradeService
type Option func(*TradeService)

func WithLogger(logger logging.Logger) Option {
	return func(s *TradeService) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *TradeService) { s.publisher = publisher }
}

// WithClock подменяет источник времени (в тестах)
func WithClock(now func() time.Time) Option {
	return func(s *TradeService) { s.now = now }
}

// WithRetry задаёт параметры повтора атомарной записи при конфликте сериализации
func WithRetry(options ...RetryOption) Option {
	return func(s *TradeService) { s.retryOptions = append(s.retryOptions, options...) }
}

// NewTradeService создает новый экземпляр TradeService
func NewTradeService(store Store, opts ...Option) *TradeService {
	s := &TradeService{
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

// CreateTradeInput - данные нового предложения обмена
type CreateTradeInput struct {
	RecipientID     uuid.UUID
	RequestedBookID uuid.UUID
	OfferedBookID   *uuid.UUID
	Message         string
}

// AcceptTradeInput - решение получателя о типе обмена
type AcceptTradeInput struct {
	TradeType              models.TradeType
	RecipientOfferedBookID *uuid.UUID
}

// CreateTrade создает новое предложение обмена в статусе pending
func (s *TradeService) CreateTrade(ctx context.Context, callerID uuid.UUID, in CreateTradeInput) (*models.Trade, error) {
	now := s.now()
	t := &models.Trade{
		ID:              uuid.New(),
		RequesterID:     callerID,
		RecipientID:     in.RecipientID,
		RequestedBookID: in.RequestedBookID,
		OfferedBookID:   in.OfferedBookID,
		Message:         strings.TrimSpace(in.Message),
		Status:          models.StatusPending,
		TradeType:       models.TradeTypeSwap,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetUser(ctx, callerID); err != nil {
			return err
		}
		if _, err := tx.GetUser(ctx, in.RecipientID); err != nil {
			return err
		}

		if err := Validate(ctx, tx, t); err != nil {
			return err
		}

		// Проверяем, не существует ли уже такое же ожидающее предложение
		duplicate, err := tx.HasPendingDuplicate(ctx, t.RequesterID, t.RequestedBookID, t.OfferedBookID)
		if err != nil {
			return err
		}
		if duplicate {
			return apperr.Validation(t.ID, fieldRequestedBook, "a pending trade for this book already exists")
		}

		return tx.InsertTrade(ctx, t)
	})
	if err != nil {
		return nil, s.fail("create trade", err)
	}

	s.logger.Info("trade created", "trade_id", t.ID, "requester_id", t.RequesterID, "recipient_id", t.RecipientID)
	s.publish(events.EventTradeCreated, t, callerID)
	return t, nil
}

// AcceptTrade принимает предложение: фиксирует тип обмена и резервирует книги
func (s *TradeService) AcceptTrade(ctx context.Context, callerID, tradeID uuid.UUID, in AcceptTradeInput) (*models.Trade, error) {
	var accepted *models.Trade

	err := s.withRetry(ctx, "accept trade", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
			t, err := tx.GetTradeForUpdate(ctx, tradeID)
			if err != nil {
				return err
			}
			if t.RecipientID != callerID {
				return apperr.Permission(t.ID, callerID, "accept")
			}
			if t.Status != models.StatusPending {
				return apperr.InvalidState(t.ID, string(t.Status), "accept")
			}

			if err := checkAcceptance(ctx, tx, t, in); err != nil {
				return err
			}

			next := t.Clone()
			next.TradeType = in.TradeType
			next.RecipientOfferedBookID = in.RecipientOfferedBookID
			if err := transition(next, models.StatusAccepted, s.now(), "accept"); err != nil {
				return err
			}

			if err := Validate(ctx, tx, next); err != nil {
				return err
			}

			if err := reserveBooks(ctx, tx, next); err != nil {
				return err
			}
			if err := tx.UpdateTrade(ctx, next); err != nil {
				return err
			}

			accepted = next
			return nil
		})
	})
	if err != nil {
		return nil, s.fail("accept trade", err)
	}

	s.logger.Info("trade accepted", "trade_id", accepted.ID, "trade_type", accepted.TradeType)
	s.publish(events.EventTradeAccepted, accepted, callerID)
	return accepted, nil
}

// checkAcceptance проверяет правила ветвления swap/donation
func checkAcceptance(ctx context.Context, books BookRegistry, t *models.Trade, in AcceptTradeInput) error {
	if !in.TradeType.Valid() {
		return apperr.Validation(t.ID, fieldTradeType, "trade type must be swap or donation")
	}

	// Книга, зарезервированная другим принятым обменом, второй раз не резервируется
	if err := requireAvailable(ctx, books, t.ID, t.RequestedBookID, fieldRequestedBook); err != nil {
		return err
	}
	if t.OfferedBookID != nil {
		if err := requireAvailable(ctx, books, t.ID, *t.OfferedBookID, fieldOfferedBook); err != nil {
			return err
		}
	}

	if in.TradeType == models.TradeTypeDonation {
		if in.RecipientOfferedBookID != nil {
			return apperr.Validation(t.ID, fieldRecipientOfferedBook, "donation cannot carry a recipient offered book")
		}
		return nil
	}

	if in.RecipientOfferedBookID == nil {
		return apperr.Validation(t.ID, fieldRecipientOfferedBook, "swap requires a recipient offered book")
	}

	bookID := *in.RecipientOfferedBookID
	if bookID == t.RequestedBookID || (t.OfferedBookID != nil && bookID == *t.OfferedBookID) {
		return apperr.Validation(t.ID, fieldRecipientOfferedBook, "book is already part of this trade")
	}

	book, err := books.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	if book.OwnerID != t.RecipientID {
		return apperr.Validation(t.ID, fieldRecipientOfferedBook, "recipient offered book must belong to the recipient")
	}
	if !book.IsAvailable {
		return apperr.Validation(t.ID, fieldRecipientOfferedBook, "recipient offered book is not available")
	}
	return nil
}

func requireAvailable(ctx context.Context, books BookRegistry, tradeID, bookID uuid.UUID, field string) error {
	book, err := books.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	if !book.IsAvailable {
		return apperr.Validation(tradeID, field, field+" is not available")
	}
	return nil
}

// ConfirmTrade подтверждает обмен от имени вызывающей стороны. Когда условие
// завершения выполнено, книги передаются новым владельцам в той же транзакции.
func (s *TradeService) ConfirmTrade(ctx context.Context, callerID, tradeID uuid.UUID) (*models.Trade, error) {
	var (
		result    *models.Trade
		changed   bool
		completed bool
	)

	err := s.withRetry(ctx, "confirm trade", func(ctx context.Context) error {
		changed, completed = false, false

		return s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
			t, err := tx.GetTradeForUpdate(ctx, tradeID)
			if err != nil {
				return err
			}
			if !t.IsParty(callerID) {
				return apperr.Permission(t.ID, callerID, "confirm")
			}
			// В дарении подтверждает только получатель книги
			if t.TradeType == models.TradeTypeDonation && callerID != t.RecipientID {
				return apperr.Permission(t.ID, callerID, "confirm")
			}

			switch t.Status {
			case models.StatusAccepted:
			case models.StatusCompleted:
				// Повторное подтверждение завершённого обмена ничего не меняет
				result = t
				return nil
			default:
				return apperr.InvalidState(t.ID, string(t.Status), "confirm")
			}

			next := t.Clone()
			if callerID == next.RequesterID && !next.RequesterConfirmed {
				next.RequesterConfirmed = true
				changed = true
			}
			if callerID == next.RecipientID && !next.RecipientConfirmed {
				next.RecipientConfirmed = true
				changed = true
			}
			if !changed {
				result = t
				return nil
			}

			now := s.now()
			next.UpdatedAt = now

			if next.CompletionSatisfied() {
				if err := s.complete(ctx, tx, next, now); err != nil {
					return err
				}
				completed = true
			}

			if err := tx.UpdateTrade(ctx, next); err != nil {
				return err
			}
			result = next
			return nil
		})
	})
	if err != nil {
		return nil, s.fail("confirm trade", err)
	}

	if changed {
		s.publish(events.EventTradeConfirmed, result, callerID)
	}
	if completed {
		s.logger.Info("trade completed", "trade_id", result.ID, "trade_type", result.TradeType)
		s.publish(events.EventTradeCompleted, result, callerID)
	}
	return result, nil
}

// RejectTrade - получатель отклоняет ожидающее предложение
func (s *TradeService) RejectTrade(ctx context.Context, callerID, tradeID uuid.UUID) (*models.Trade, error) {
	return s.closePending(ctx, callerID, tradeID, models.StatusRejected, "reject",
		func(t *models.Trade) bool { return t.RecipientID == callerID })
}

// CancelTrade - инициатор отзывает своё ожидающее предложение
func (s *TradeService) CancelTrade(ctx context.Context, callerID, tradeID uuid.UUID) (*models.Trade, error) {
	return s.closePending(ctx, callerID, tradeID, models.StatusCancelled, "cancel",
		func(t *models.Trade) bool { return t.RequesterID == callerID })
}

func (s *TradeService) closePending(ctx context.Context, callerID, tradeID uuid.UUID, to models.Status, operation string,
	allowed func(*models.Trade) bool) (*models.Trade, error) {
	var closed *models.Trade

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		t, err := tx.GetTradeForUpdate(ctx, tradeID)
		if err != nil {
			return err
		}
		if !allowed(t) {
			return apperr.Permission(t.ID, callerID, operation)
		}

		next := t.Clone()
		if err := transition(next, to, s.now(), operation); err != nil {
			return err
		}
		if err := tx.UpdateTrade(ctx, next); err != nil {
			return err
		}
		closed = next
		return nil
	})
	if err != nil {
		return nil, s.fail(operation+" trade", err)
	}

	eventType := events.EventTradeRejected
	if to == models.StatusCancelled {
		eventType = events.EventTradeCancelled
	}
	s.logger.Info("trade closed", "trade_id", closed.ID, "status", closed.Status)
	s.publish(eventType, closed, callerID)
	return closed, nil
}

// withRetry повторяет атомарную запись при конфликте сериализации
func (s *TradeService) withRetry(ctx context.Context, op string, fn RetryableFunc) error {
	meta, err := RetryWithExponentialBackoff(ctx, fn, s.retryOptions...)
	if meta.Attempts > 1 {
		s.logger.Warn("trade write retried", "op", op, "attempts", meta.Attempts, "total_delay", meta.TotalDelay, "error", err)
	}
	return err
}

// fail пропускает доменные ошибки как есть, остальное - временный сбой хранилища
func (s *TradeService) fail(op string, err error) error {
	if isDomainError(err) {
		return err
	}
	s.logger.Error("trade storage failure", "op", op, "error", err)
	return &apperr.TransientError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	return errors.Is(err, apperr.ErrValidation) ||
		errors.Is(err, apperr.ErrInvalidState) ||
		errors.Is(err, apperr.ErrPermission) ||
		errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrTransient)
}

func (s *TradeService) publish(eventType events.EventType, t *models.Trade, actorID uuid.UUID) {
	s.publisher.Publish(events.Event{
		Type:        eventType,
		TradeID:     t.ID,
		Status:      string(t.Status),
		ActorID:     actorID,
		RequesterID: t.RequesterID,
		RecipientID: t.RecipientID,
		Timestamp:   s.now(),
	})
}
