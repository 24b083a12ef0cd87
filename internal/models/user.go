package models

import "github.com/google/uuid"

// User - запись каталога пользователей, нужная ядру обменов
type User struct {
	ID                    uuid.UUID `json:"id"`
	Username              string    `json:"username,omitempty"`
	FirstName             string    `json:"first_name,omitempty"`
	LastName              string    `json:"last_name,omitempty"`
	SuccessfulTradesCount int       `json:"successful_trades_count"`
}

const (
	ReliabilityNew     = "New User"
	ReliabilityGood    = "Reliable"
	ReliabilityVery    = "Very Reliable"
	ReliabilityHighest = "Highly Reliable"
)

// ReliabilityScore возвращает метку надёжности по числу завершённых обменов
func (u User) ReliabilityScore() string {
	switch {
	case u.SuccessfulTradesCount <= 0:
		return ReliabilityNew
	case u.SuccessfulTradesCount < 5:
		return ReliabilityGood
	case u.SuccessfulTradesCount < 10:
		return ReliabilityVery
	default:
		return ReliabilityHighest
	}
}

// UserSummary представляет минимальную информацию о пользователе для API
type UserSummary struct {
	ID                    uuid.UUID `json:"id"`
	Username              string    `json:"username,omitempty"`
	FirstName             string    `json:"first_name,omitempty"`
	LastName              string    `json:"last_name,omitempty"`
	SuccessfulTradesCount int       `json:"successful_trades_count"`
	ReliabilityScore      string    `json:"reliability_score"`
}

func (u User) Summary() *UserSummary {
	return &UserSummary{
		ID:                    u.ID,
		Username:              u.Username,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		SuccessfulTradesCount: u.SuccessfulTradesCount,
		ReliabilityScore:      u.ReliabilityScore(),
	}
}
