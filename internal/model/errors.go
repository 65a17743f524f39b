package model

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	FieldID      = "id"
	FieldName    = "name"
	FieldPrice   = "price"
	FieldActive  = "active"
	FieldProduct = "product"
)

// ValidationError reports a product invariant violation. It is always raised
// before any I/O happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
