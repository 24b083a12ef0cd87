package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeView - готовые срезы видимых пользователю обменов
type TradeView string

const (
	ViewAll       TradeView = "all"
	ViewSent      TradeView = "sent"
	ViewReceived  TradeView = "received"
	ViewPending   TradeView = "pending"
	ViewCompleted TradeView = "completed"
	ViewDonations TradeView = "donations"
)

func (v TradeView) Valid() bool {
	switch v {
	case ViewAll, ViewSent, ViewReceived, ViewPending, ViewCompleted, ViewDonations:
		return true
	}
	return false
}

// Page - пагинация limit/offset, Limit == 0 означает "без ограничения"
type Page struct {
	Limit  int
	Offset int
}

// TradeFilter - запрос к хранилищу. UserID задаёт видимость:
// попадают только обмены, где пользователь - одна из сторон.
type TradeFilter struct {
	UserID    uuid.UUID
	View      TradeView
	Status    *Status
	TradeType *TradeType
	Page      Page
}

// Matches применяет фильтр к обмену в памяти
func (f TradeFilter) Matches(t *Trade) bool {
	if !t.IsParty(f.UserID) {
		return false
	}

	switch f.View {
	case ViewSent:
		if t.RequesterID != f.UserID {
			return false
		}
	case ViewReceived:
		if t.RecipientID != f.UserID {
			return false
		}
	case ViewPending:
		if t.RecipientID != f.UserID || t.Status != StatusPending {
			return false
		}
	case ViewCompleted:
		if t.Status != StatusCompleted {
			return false
		}
	case ViewDonations:
		if t.TradeType != TradeTypeDonation {
			return false
		}
	}

	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.TradeType != nil && t.TradeType != *f.TradeType {
		return false
	}
	return true
}

// MessagePage - курсорная пагинация сообщений по возрастанию времени создания
type MessagePage struct {
	Limit int
	After *time.Time
}
