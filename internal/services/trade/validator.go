package trade

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

const (
	fieldRecipient            = "recipient"
	fieldRequestedBook        = "requested_book"
	fieldOfferedBook          = "offered_book"
	fieldRecipientOfferedBook = "recipient_offered_book"
	fieldTradeType            = "trade_type"
)

// Validate проверяет инварианты обмена против текущего состояния реестра книг.
// Вызывается перед каждой записью, меняющей обмен, внутри той же транзакции.
// Закрытые обмены не проверяются: после завершения книги законно меняют владельцев.
func Validate(ctx context.Context, books BookRegistry, t *models.Trade) error {
	if !t.Status.IsOpen() {
		return nil
	}

	if t.RequesterID == t.RecipientID {
		return apperr.Validation(t.ID, fieldRecipient, "cannot trade with yourself")
	}

	if err := requireOwner(ctx, books, t.ID, t.RequestedBookID, t.RecipientID, fieldRequestedBook,
		"requested book must belong to the recipient"); err != nil {
		return err
	}

	if t.OfferedBookID != nil {
		if err := requireOwner(ctx, books, t.ID, *t.OfferedBookID, t.RequesterID, fieldOfferedBook,
			"offered book must belong to the requester"); err != nil {
			return err
		}
	}

	if t.RecipientOfferedBookID != nil {
		if t.TradeType == models.TradeTypeDonation {
			return apperr.Validation(t.ID, fieldRecipientOfferedBook, "donation cannot carry a recipient offered book")
		}
		if err := requireOwner(ctx, books, t.ID, *t.RecipientOfferedBookID, t.RecipientID, fieldRecipientOfferedBook,
			"recipient offered book must belong to the recipient"); err != nil {
			return err
		}
	}

	// После принятия обмен книгами обязан иметь ответную книгу
	if t.Status != models.StatusPending && t.TradeType == models.TradeTypeSwap && t.RecipientOfferedBookID == nil {
		return apperr.Validation(t.ID, fieldRecipientOfferedBook, "swap requires a recipient offered book")
	}

	return nil
}

func requireOwner(ctx context.Context, books BookRegistry, tradeID, bookID, ownerID uuid.UUID, field, reason string) error {
	book, err := books.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	if book.OwnerID != ownerID {
		return apperr.Validation(tradeID, field, reason)
	}
	return nil
}
