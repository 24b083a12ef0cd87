package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeMessage - сообщение в переписке по конкретному обмену. После создания не меняется.
type TradeMessage struct {
	ID        uuid.UUID `json:"id"`
	TradeID   uuid.UUID `json:"trade_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
