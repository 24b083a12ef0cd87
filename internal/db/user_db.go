package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

func getUser(ctx context.Context, q querier, id uuid.UUID) (models.User, error) {
	var u models.User
	err := q.QueryRow(ctx, `
        SELECT id, username, first_name, last_name, successful_trades_count
        FROM users WHERE id = $1
    `, id).Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.SuccessfulTradesCount)
	if err != nil {
		return models.User{}, mapError(err, "user", id)
	}
	return u, nil
}

// incrementSuccessfulTrades начисляет обмен пользователю один раз:
// запись в trade_credits защищает от повторного начисления
func incrementSuccessfulTrades(ctx context.Context, q querier, userID, tradeID uuid.UUID) error {
	tag, err := q.Exec(ctx, `
        INSERT INTO trade_credits (trade_id, user_id) VALUES ($1, $2)
        ON CONFLICT DO NOTHING
    `, tradeID, userID)
	if err != nil {
		return fmt.Errorf("ошибка при начислении обмена: %w", wrapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	tag, err = q.Exec(ctx, `
        UPDATE users SET successful_trades_count = successful_trades_count + 1, updated_at = NOW()
        WHERE id = $1
    `, userID)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении счётчика обменов: %w", wrapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user", userID)
	}
	return nil
}

// InsertUser добавляет пользователя в каталог (заполнение и тесты)
func (s *PostgresStore) InsertUser(ctx context.Context, u models.User) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO users (id, username, first_name, last_name, successful_trades_count)
        VALUES ($1, $2, $3, $4, $5)
    `, u.ID, u.Username, u.FirstName, u.LastName, u.SuccessfulTradesCount)
	if err != nil {
		return fmt.Errorf("ошибка при добавлении пользователя: %w", wrapPgError(err))
	}
	return nil
}
