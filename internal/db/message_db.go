package db

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/models"
)

func insertMessage(ctx context.Context, q querier, msg *models.TradeMessage) error {
	_, err := q.Exec(ctx, `
        INSERT INTO trade_messages (id, trade_id, sender_id, text, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, msg.ID, msg.TradeID, msg.SenderID, msg.Text, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении сообщения: %w", wrapPgError(err))
	}
	return nil
}

func listMessages(ctx context.Context, q querier, tradeID uuid.UUID, page models.MessagePage) ([]models.TradeMessage, error) {
	ds := dialect.From("trade_messages").Prepared(true).
		Select("id", "trade_id", "sender_id", "text", "created_at").
		Where(goqu.C("trade_id").Eq(tradeID.String()))

	if page.After != nil {
		ds = ds.Where(goqu.C("created_at").Gt(*page.After))
	}
	ds = ds.Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())
	if page.Limit > 0 {
		ds = ds.Limit(uint(page.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении сообщений: %w", wrapPgError(err))
	}
	defer rows.Close()

	var messages []models.TradeMessage
	for rows.Next() {
		var m models.TradeMessage
		if err := rows.Scan(&m.ID, &m.TradeID, &m.SenderID, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка при чтении сообщения: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обходе сообщений: %w", wrapPgError(err))
	}
	return messages, nil
}
