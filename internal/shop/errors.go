package shop

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("shop: entity not found")

	// ErrDuplicateKey is returned when inserting an entity whose key already exists.
	ErrDuplicateKey = errors.New("shop: duplicate key")

	// ErrMapping is matched by every MappingError.
	ErrMapping = errors.New("shop: malformed row")

	// ErrPartialCascade is matched by a CascadeError that left dependents behind.
	// The affected aggregate needs manual reconciliation.
	ErrPartialCascade = errors.New("shop: delete cascade stopped partway")

	// ErrInvalid is returned for rejected input values.
	ErrInvalid = errors.New("shop: invalid input")

	// ErrEmptyCart is returned when checking out a user with no cart lines.
	ErrEmptyCart = errors.New("shop: cart is empty")

	// ErrInsufficientStock is returned when a checkout exceeds product quantity.
	ErrInsufficientStock = errors.New("shop: insufficient stock")
)

// MappingError describes a persisted row that could not be turned into an entity.
type MappingError struct {
	Entity string
	Column string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("map %s: column %q: %s", e.Entity, e.Column, e.Reason)
}

// Is makes errors.Is(err, ErrMapping) hold for every MappingError.
func (e *MappingError) Is(target error) bool {
	return target == ErrMapping
}

// CascadeError reports a delete cascade that failed at Step.
//
// Completed lists the steps that had already been applied. When RolledBack is
// true the backend undid them and no reconciliation is needed. A cascade that
// was not rolled back and completed at least one step matches ErrPartialCascade.
type CascadeError struct {
	Entity     string
	ID         int
	Step       string
	Completed  []string
	RolledBack bool
	Err        error
}

func (e *CascadeError) Error() string {
	var state string
	switch {
	case e.RolledBack:
		state = "rolled back"
	case len(e.Completed) == 0:
		state = "nothing removed"
	default:
		state = "partial, completed: " + strings.Join(e.Completed, ", ")
	}
	return fmt.Sprintf("delete %s %d: step %s (%s): %v", e.Entity, e.ID, e.Step, state, e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}

// Partial reports whether some dependents were removed and left removed.
func (e *CascadeError) Partial() bool {
	return !e.RolledBack && len(e.Completed) > 0
}

// Is matches ErrPartialCascade for partial cascades.
func (e *CascadeError) Is(target error) bool {
	return target == ErrPartialCascade && e.Partial()
}

// IsPartialCascade reports whether err left a store or product half deleted.
func IsPartialCascade(err error) bool {
	return errors.Is(err, ErrPartialCascade)
}
