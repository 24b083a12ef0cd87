package trade

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// reserveBooks снимает с доступности все книги принятого обмена.
// Владельцы уже проверены валидатором.
func reserveBooks(ctx context.Context, books BookRegistry, t *models.Trade) error {
	if err := books.SetOwnerAndAvailability(ctx, t.RequestedBookID, t.RecipientID, false); err != nil {
		return err
	}
	if t.OfferedBookID != nil {
		if err := books.SetOwnerAndAvailability(ctx, *t.OfferedBookID, t.RequesterID, false); err != nil {
			return err
		}
	}
	if t.RecipientOfferedBookID != nil {
		if err := books.SetOwnerAndAvailability(ctx, *t.RecipientOfferedBookID, t.RecipientID, false); err != nil {
			return err
		}
	}
	return nil
}

// complete переводит обмен в completed, передаёт книги и начисляет счётчики.
// Переход accepted -> completed проверяется до любых записей, поэтому
// повторный вход на уже завершённом обмене не меняет ничего.
func (s *TradeService) complete(ctx context.Context, tx Tx, t *models.Trade, at time.Time) error {
	if !canTransition(t.Status, models.StatusCompleted) {
		return transition(t, models.StatusCompleted, at, "complete")
	}

	// Владелец мог смениться с момента принятия
	if err := Validate(ctx, tx, t); err != nil {
		return err
	}

	if err := transferOwnership(ctx, tx, t); err != nil {
		return err
	}

	for _, userID := range []uuid.UUID{t.RequesterID, t.RecipientID} {
		if err := tx.IncrementSuccessfulTrades(ctx, userID, t.ID); err != nil {
			return err
		}
	}

	return transition(t, models.StatusCompleted, at, "complete")
}

func transferOwnership(ctx context.Context, books BookRegistry, t *models.Trade) error {
	if err := books.SetOwnerAndAvailability(ctx, t.RequestedBookID, t.RequesterID, true); err != nil {
		return err
	}

	if t.TradeType == models.TradeTypeDonation {
		// Предложенная книга в дарении остаётся у инициатора, снимаем резерв
		if t.OfferedBookID != nil {
			return books.SetOwnerAndAvailability(ctx, *t.OfferedBookID, t.RequesterID, true)
		}
		return nil
	}

	if t.RecipientOfferedBookID != nil {
		if err := books.SetOwnerAndAvailability(ctx, *t.RecipientOfferedBookID, t.RequesterID, true); err != nil {
			return err
		}
	}
	if t.OfferedBookID != nil {
		if err := books.SetOwnerAndAvailability(ctx, *t.OfferedBookID, t.RecipientID, true); err != nil {
			return err
		}
	}
	return nil
}
