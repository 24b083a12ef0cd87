package models

import (
	"time"

	"github.com/google/uuid"
)

// Status - статус предложения обмена
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// IsOpen сообщает, что обмен ещё не завершён и не закрыт
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusAccepted
}

// Valid проверяет, что статус из известного набора
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// TradeType - обмен книгами или безвозмездная передача
type TradeType string

const (
	TradeTypeSwap     TradeType = "swap"
	TradeTypeDonation TradeType = "donation"
)

func (t TradeType) Valid() bool {
	return t == TradeTypeSwap || t == TradeTypeDonation
}

// Trade представляет предложение об обмене книгами
type Trade struct {
	ID                     uuid.UUID  `json:"id"`
	RequesterID            uuid.UUID  `json:"requester_id"`
	RecipientID            uuid.UUID  `json:"recipient_id"`
	RequestedBookID        uuid.UUID  `json:"requested_book_id"`
	OfferedBookID          *uuid.UUID `json:"offered_book_id,omitempty"`
	RecipientOfferedBookID *uuid.UUID `json:"recipient_offered_book_id,omitempty"`
	Message                string     `json:"message"`
	Status                 Status     `json:"status"`
	TradeType              TradeType  `json:"trade_type"`
	RequesterConfirmed     bool       `json:"requester_confirmed"`
	RecipientConfirmed     bool       `json:"recipient_confirmed"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// IsParty - является ли пользователь одной из сторон обмена
func (t *Trade) IsParty(userID uuid.UUID) bool {
	return t.RequesterID == userID || t.RecipientID == userID
}

// CompletionSatisfied - условие завершения: для дарения достаточно
// подтверждения получателя, для обмена нужны оба подтверждения.
func (t *Trade) CompletionSatisfied() bool {
	if t.TradeType == TradeTypeDonation {
		return t.RecipientConfirmed
	}
	return t.RequesterConfirmed && t.RecipientConfirmed
}

// Clone возвращает копию без общих указателей
func (t *Trade) Clone() *Trade {
	c := *t
	if t.OfferedBookID != nil {
		id := *t.OfferedBookID
		c.OfferedBookID = &id
	}
	if t.RecipientOfferedBookID != nil {
		id := *t.RecipientOfferedBookID
		c.RecipientOfferedBookID = &id
	}
	return &c
}

// TradeDetails - обмен с данными об участниках и книгах для API
type TradeDetails struct {
	Trade
	Requester            *UserSummary `json:"requester,omitempty"`
	Recipient            *UserSummary `json:"recipient,omitempty"`
	RequestedBook        *Book        `json:"requested_book,omitempty"`
	OfferedBook          *Book        `json:"offered_book,omitempty"`
	RecipientOfferedBook *Book        `json:"recipient_offered_book,omitempty"`
}
