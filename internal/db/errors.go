package db

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// mapError приводит ошибки pgx к ошибкам ядра: отсутствующая строка -
// NotFound, проигранная гонка транзакций - конфликт сериализации
func mapError(err error, kind string, id uuid.UUID) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(kind, id)
	}
	return wrapPgError(err)
}

func wrapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected:
			return fmt.Errorf("%w: %s", apperr.ErrSerializationConflict, pgErr.Message)
		}
	}
	return err
}
