package trade

import (
	"time"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// Допустимые переходы статусов. rejected, cancelled и completed - конечные.
var transitions = map[models.Status][]models.Status{
	models.StatusPending:  {models.StatusAccepted, models.StatusRejected, models.StatusCancelled},
	models.StatusAccepted: {models.StatusCompleted},
}

func canTransition(from, to models.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// transition переводит обмен в новый статус или возвращает InvalidStateError
func transition(t *models.Trade, to models.Status, at time.Time, operation string) error {
	if !canTransition(t.Status, to) {
		return apperr.InvalidState(t.ID, string(t.Status), operation)
	}
	t.Status = to
	t.UpdatedAt = at
	return nil
}
