package trade

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// BookRegistry - реестр книг (внешний сервис). Методы, вызванные через Tx,
// выполняются в той же атомарной единице, что и запись обмена.
type BookRegistry interface {
	GetBook(ctx context.Context, id uuid.UUID) (models.Book, error)
	SetOwnerAndAvailability(ctx context.Context, id, ownerID uuid.UUID, available bool) error
}

// UserDirectory - каталог пользователей (внешний сервис)
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	// IncrementSuccessfulTrades увеличивает счётчик на 1. Повторный вызов
	// с той же парой (userID, tradeID) не должен увеличивать его ещё раз.
	IncrementSuccessfulTrades(ctx context.Context, userID, tradeID uuid.UUID) error
}

// Tx - одна атомарная единица работы: строка обмена заблокирована
// до фиксации, все записи применяются вместе или не применяются вовсе.
type Tx interface {
	BookRegistry
	UserDirectory

	GetTradeForUpdate(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	InsertTrade(ctx context.Context, t *models.Trade) error
	UpdateTrade(ctx context.Context, t *models.Trade) error
	HasPendingDuplicate(ctx context.Context, requesterID, requestedBookID uuid.UUID, offeredBookID *uuid.UUID) (bool, error)
}

// Store - хранилище обменов
type Store interface {
	// InTx выполняет fn в транзакции. Ошибка fn откатывает все записи.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	ListTrades(ctx context.Context, filter models.TradeFilter) ([]*models.Trade, error)
	GetBook(ctx context.Context, id uuid.UUID) (models.Book, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
}
