package services

import (
	"fmt"

	"github.com/yeremiapane/cafe-ordering/models"
)

// NotFoundError covers both missing and soft-deleted records. Callers cannot
// tell the two apart.
type NotFoundError struct {
	Resource string
	Key      interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.Key)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	if next, ok := e.From.Next(); ok {
		return fmt.Sprintf("cannot move order from %s to %s, next status is %s", e.From, e.To, next)
	}
	return fmt.Sprintf("cannot move order from %s to %s, %s is final", e.From, e.To, e.From)
}

// ConflictError reports a write that lost against concurrent state. The
// caller may re-read and retry, the server never does.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func notFound(resource string, key interface{}) error {
	return &NotFoundError{Resource: resource, Key: key}
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
