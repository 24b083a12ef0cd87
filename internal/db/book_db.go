package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

func getBook(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (models.Book, error) {
	query := `
        SELECT id, owner_id, title, author, is_available, created_at, updated_at
        FROM books WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var b models.Book
	err := q.QueryRow(ctx, query, id).Scan(&b.ID, &b.OwnerID, &b.Title, &b.Author, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return models.Book{}, mapError(err, "book", id)
	}
	return b, nil
}

func setOwnerAndAvailability(ctx context.Context, q querier, id, ownerID uuid.UUID, available bool) error {
	tag, err := q.Exec(ctx, `
        UPDATE books SET owner_id = $2, is_available = $3, updated_at = NOW()
        WHERE id = $1
    `, id, ownerID, available)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении книги: %w", wrapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("book", id)
	}
	return nil
}

// InsertBook добавляет книгу в реестр (заполнение и тесты)
func (s *PostgresStore) InsertBook(ctx context.Context, b models.Book) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO books (id, owner_id, title, author, is_available)
        VALUES ($1, $2, $3, $4, $5)
    `, b.ID, b.OwnerID, b.Title, b.Author, b.IsAvailable)
	if err != nil {
		return fmt.Errorf("ошибка при добавлении книги: %w", wrapPgError(err))
	}
	return nil
}
