package trade

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// VisibleTrades возвращает обмены, где вызывающий - одна из сторон,
// новые сначала
func (s *TradeService) VisibleTrades(ctx context.Context, callerID uuid.UUID, filter models.TradeFilter) ([]*models.Trade, error) {
	filter.UserID = callerID
	if filter.View == "" {
		filter.View = models.ViewAll
	}
	if !filter.View.Valid() {
		return nil, apperr.Validation(uuid.Nil, "view", "unknown view")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperr.Validation(uuid.Nil, "status", "unknown status")
	}
	if filter.TradeType != nil && !filter.TradeType.Valid() {
		return nil, apperr.Validation(uuid.Nil, fieldTradeType, "unknown trade type")
	}
	if filter.Page.Limit < 0 || filter.Page.Offset < 0 {
		return nil, apperr.Validation(uuid.Nil, "page", "limit and offset must not be negative")
	}

	trades, err := s.store.ListTrades(ctx, filter)
	if err != nil {
		return nil, s.fail("list trades", err)
	}
	return trades, nil
}

// GetTrade возвращает обмен стороне обмена. Для остальных обмен не существует.
func (s *TradeService) GetTrade(ctx context.Context, callerID, tradeID uuid.UUID) (*models.Trade, error) {
	t, err := s.store.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, s.fail("get trade", err)
	}
	if !t.IsParty(callerID) {
		return nil, apperr.NotFound("trade", tradeID)
	}
	return t, nil
}

// GetTradeDetails дополняет обмен данными об участниках и книгах
func (s *TradeService) GetTradeDetails(ctx context.Context, callerID, tradeID uuid.UUID) (*models.TradeDetails, error) {
	t, err := s.GetTrade(ctx, callerID, tradeID)
	if err != nil {
		return nil, err
	}

	details := &models.TradeDetails{Trade: *t}
	details.Requester = s.userSummary(ctx, t.RequesterID)
	details.Recipient = s.userSummary(ctx, t.RecipientID)
	details.RequestedBook = s.book(ctx, t.RequestedBookID)
	if t.OfferedBookID != nil {
		details.OfferedBook = s.book(ctx, *t.OfferedBookID)
	}
	if t.RecipientOfferedBookID != nil {
		details.RecipientOfferedBook = s.book(ctx, *t.RecipientOfferedBookID)
	}
	return details, nil
}

// Недоступные справочные данные не мешают отдать сам обмен
func (s *TradeService) userSummary(ctx context.Context, id uuid.UUID) *models.UserSummary {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		s.logger.Warn("trade details: user lookup failed", "user_id", id, "error", err)
		return nil
	}
	return user.Summary()
}

func (s *TradeService) book(ctx context.Context, id uuid.UUID) *models.Book {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		s.logger.Warn("trade details: book lookup failed", "book_id", id, "error", err)
		return nil
	}
	return &book
}
