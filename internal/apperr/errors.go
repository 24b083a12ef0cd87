// Package apperr описывает типизированные ошибки ядра обменов.
package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidState = errors.New("invalid state")
	ErrPermission   = errors.New("permission denied")
	ErrNotFound     = errors.New("not found")
	ErrTransient    = errors.New("transient failure")

	// ErrSerializationConflict возвращается хранилищем, когда транзакция
	// проиграла гонку за строку (SQLSTATE 40001/40P01). Такие ошибки повторяются.
	ErrSerializationConflict = errors.New("serialization conflict")
)

// ValidationError - входные данные нарушают инвариант модели
type ValidationError struct {
	TradeID uuid.UUID
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.TradeID == uuid.Nil {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("trade %s: validation failed on %s: %s", e.TradeID, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidStateError - операция не допустима в текущем статусе обмена
type InvalidStateError struct {
	TradeID   uuid.UUID
	Status    string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("trade %s: cannot %s in status %q", e.TradeID, e.Operation, e.Status)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// PermissionError - вызывающий не является нужной стороной обмена
type PermissionError struct {
	TradeID   uuid.UUID
	UserID    uuid.UUID
	Operation string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("trade %s: user %s is not allowed to %s", e.TradeID, e.UserID, e.Operation)
}

func (e *PermissionError) Is(target error) bool { return target == ErrPermission }

// NotFoundError - идентификатор обмена, книги или пользователя не найден
type NotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransientError - сбой хранилища, который вызывающий может повторить позже
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Is(target error) bool { return target == ErrTransient }

// Конструкторы для краткости в сервисах

func Validation(tradeID uuid.UUID, field, reason string) error {
	return &ValidationError{TradeID: tradeID, Field: field, Reason: reason}
}

func InvalidState(tradeID uuid.UUID, status, operation string) error {
	return &InvalidStateError{TradeID: tradeID, Status: status, Operation: operation}
}

func Permission(tradeID, userID uuid.UUID, operation string) error {
	return &PermissionError{TradeID: tradeID, UserID: userID, Operation: operation}
}

func NotFound(kind string, id uuid.UUID) error {
	return &NotFoundError{Kind: kind, ID: id}
}
