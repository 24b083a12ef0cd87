package models

import (
	"time"

	"github.com/google/uuid"
)

// Book - запись реестра книг. Ядро читает владельца и доступность
// и меняет их при принятии и завершении обмена.
type Book struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
