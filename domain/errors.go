package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the ledgers and the sale coordinator.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidDate       = errors.New("invalid date")
	ErrDuplicateID       = errors.New("an item with this id already exists")
	ErrNotFound          = errors.New("item not found")
	ErrInsufficientStock = errors.New("not enough stock available")
	ErrCorruptStore      = errors.New("corrupt store")
	ErrSaleIncomplete    = errors.New("stock was decremented but the sale was not recorded")
)

// ValidationError describes malformed caller input.
type ValidationError struct {
	Field   string
	Message string
	// Kind narrows the failure, e.g. ErrInvalidDate. Nil means a plain
	// validation failure.
	Kind error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	return e.Kind != nil && target == e.Kind
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
