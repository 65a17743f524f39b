package product

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrDuplicateKey = errors.New("product id already exists")
	ErrConnectivity = errors.New("store connection failed")
)

// DuplicateKeyError is returned by inserts that hit the id uniqueness
// constraint.
type DuplicateKeyError struct {
	ID  int64
	Err error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("product %d already exists: %v", e.ID, e.Err)
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// PersistenceError wraps every other data-access failure.
type PersistenceError struct {
	Op           string
	Err          error
	Connectivity bool
}

func (e *PersistenceError) Error() string {
	if e.Connectivity {
		return fmt.Sprintf("%s: %v: %v", e.Op, ErrConnectivity, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return e.Connectivity && target == ErrConnectivity
}

func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
