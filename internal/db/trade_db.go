package db

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

const tradeColumns = `id, requester_id, recipient_id, requested_book_id, offered_book_id,
	recipient_offered_book_id, message, status, trade_type, requester_confirmed,
	recipient_confirmed, created_at, updated_at`

var tradeColumnList = []any{
	"id", "requester_id", "recipient_id", "requested_book_id", "offered_book_id",
	"recipient_offered_book_id", "message", "status", "trade_type", "requester_confirmed",
	"recipient_confirmed", "created_at", "updated_at",
}

func scanTrade(row pgx.Row) (*models.Trade, error) {
	var (
		t                   models.Trade
		offered, recipOffer pgtype.UUID
		status, tradeType   string
	)

	err := row.Scan(&t.ID, &t.RequesterID, &t.RecipientID, &t.RequestedBookID, &offered,
		&recipOffer, &t.Message, &status, &tradeType, &t.RequesterConfirmed,
		&t.RecipientConfirmed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.OfferedBookID = fromPgUUID(offered)
	t.RecipientOfferedBookID = fromPgUUID(recipOffer)
	t.Status = models.Status(status)
	t.TradeType = models.TradeType(tradeType)
	return &t, nil
}

func fromPgUUID(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

func getTrade(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	t, err := scanTrade(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "trade", id)
	}
	return t, nil
}

func insertTrade(ctx context.Context, q querier, t *models.Trade) error {
	_, err := q.Exec(ctx, `
        INSERT INTO trades (`+tradeColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, t.ID, t.RequesterID, t.RecipientID, t.RequestedBookID, t.OfferedBookID,
		t.RecipientOfferedBookID, t.Message, string(t.Status), string(t.TradeType), t.RequesterConfirmed,
		t.RecipientConfirmed, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при создании обмена: %w", wrapPgError(err))
	}
	return nil
}

func updateTrade(ctx context.Context, q querier, t *models.Trade) error {
	tag, err := q.Exec(ctx, `
        UPDATE trades
        SET recipient_offered_book_id = $2, status = $3, trade_type = $4,
            requester_confirmed = $5, recipient_confirmed = $6, updated_at = $7
        WHERE id = $1
    `, t.ID, t.RecipientOfferedBookID, string(t.Status), string(t.TradeType),
		t.RequesterConfirmed, t.RecipientConfirmed, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении обмена: %w", wrapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("trade", t.ID)
	}
	return nil
}

func hasPendingDuplicate(ctx context.Context, q querier, requesterID, requestedBookID uuid.UUID, offeredBookID *uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM trades
            WHERE requester_id = $1 AND requested_book_id = $2
              AND offered_book_id IS NOT DISTINCT FROM $3 AND status = 'pending'
        )
    `, requesterID, requestedBookID, offeredBookID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки существующих предложений: %w", wrapPgError(err))
	}
	return exists, nil
}

// listTrades строит запрос через goqu: набор условий зависит от среза и фильтров
func listTrades(ctx context.Context, q querier, f models.TradeFilter) ([]*models.Trade, error) {
	user := f.UserID.String()

	ds := dialect.From("trades").Prepared(true).Select(tradeColumnList...)

	switch f.View {
	case models.ViewSent:
		ds = ds.Where(goqu.C("requester_id").Eq(user))
	case models.ViewReceived:
		ds = ds.Where(goqu.C("recipient_id").Eq(user))
	case models.ViewPending:
		ds = ds.Where(goqu.C("recipient_id").Eq(user), goqu.C("status").Eq(string(models.StatusPending)))
	default:
		ds = ds.Where(goqu.Or(goqu.C("requester_id").Eq(user), goqu.C("recipient_id").Eq(user)))
	}

	switch f.View {
	case models.ViewCompleted:
		ds = ds.Where(goqu.C("status").Eq(string(models.StatusCompleted)))
	case models.ViewDonations:
		ds = ds.Where(goqu.C("trade_type").Eq(string(models.TradeTypeDonation)))
	}

	if f.Status != nil {
		ds = ds.Where(goqu.C("status").Eq(string(*f.Status)))
	}
	if f.TradeType != nil {
		ds = ds.Where(goqu.C("trade_type").Eq(string(*f.TradeType)))
	}

	ds = ds.Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())
	if f.Page.Limit > 0 {
		ds = ds.Limit(uint(f.Page.Limit))
	}
	if f.Page.Offset > 0 {
		ds = ds.Offset(uint(f.Page.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении обменов: %w", wrapPgError(err))
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка при чтении обмена: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обходе обменов: %w", wrapPgError(err))
	}
	return trades, nil
}
