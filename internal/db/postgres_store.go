package db

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/services/trade"
)

// querier - общее у pgxpool.Pool и pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var dialect = goqu.Dialect("postgres")

// PostgresStore хранит обмены, книги, пользователей и сообщения в Postgres
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InTx выполняет fn в транзакции READ COMMITTED. Строки обмена и книг
// блокируются через SELECT ... FOR UPDATE внутри pgTx.
func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx trade.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", wrapPgError(err))
	}
	defer tx.Rollback(ctx) // Откатываем транзакцию в случае ошибки

	if err := fn(ctx, &pgTx{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", wrapPgError(err))
	}
	return nil
}

func (s *PostgresStore) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	return getTrade(ctx, s.pool, id, false)
}

func (s *PostgresStore) ListTrades(ctx context.Context, filter models.TradeFilter) ([]*models.Trade, error) {
	return listTrades(ctx, s.pool, filter)
}

func (s *PostgresStore) GetBook(ctx context.Context, id uuid.UUID) (models.Book, error) {
	return getBook(ctx, s.pool, id, false)
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	return getUser(ctx, s.pool, id)
}

func (s *PostgresStore) AppendMessage(ctx context.Context, msg *models.TradeMessage) error {
	return insertMessage(ctx, s.pool, msg)
}

func (s *PostgresStore) ListMessages(ctx context.Context, tradeID uuid.UUID, page models.MessagePage) ([]models.TradeMessage, error) {
	return listMessages(ctx, s.pool, tradeID, page)
}

// pgTx - trade.Tx поверх транзакции pgx
type pgTx struct {
	q querier
}

func (t *pgTx) GetTradeForUpdate(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	return getTrade(ctx, t.q, id, true)
}

func (t *pgTx) InsertTrade(ctx context.Context, tr *models.Trade) error {
	return insertTrade(ctx, t.q, tr)
}

func (t *pgTx) UpdateTrade(ctx context.Context, tr *models.Trade) error {
	return updateTrade(ctx, t.q, tr)
}

func (t *pgTx) HasPendingDuplicate(ctx context.Context, requesterID, requestedBookID uuid.UUID, offeredBookID *uuid.UUID) (bool, error) {
	return hasPendingDuplicate(ctx, t.q, requesterID, requestedBookID, offeredBookID)
}

func (t *pgTx) GetBook(ctx context.Context, id uuid.UUID) (models.Book, error) {
	return getBook(ctx, t.q, id, true)
}

func (t *pgTx) SetOwnerAndAvailability(ctx context.Context, id, ownerID uuid.UUID, available bool) error {
	return setOwnerAndAvailability(ctx, t.q, id, ownerID, available)
}

func (t *pgTx) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	return getUser(ctx, t.q, id)
}

func (t *pgTx) IncrementSuccessfulTrades(ctx context.Context, userID, tradeID uuid.UUID) error {
	return incrementSuccessfulTrades(ctx, t.q, userID, tradeID)
}
