package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("resource already held")
	ErrItemUnavailable   = errors.New("item unavailable")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidationFailed  = errors.New("validation failed")
	ErrInconsistent      = errors.New("inconsistent order totals")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

// ValidationError reports a missing or malformed field. It matches ErrValidationFailed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// UnavailableItemsError lists every item of a cart that the caller cannot check out.
// Reasons holds the availability observed for each offending item.
type UnavailableItemsError struct {
	Reasons map[int64]string
}

// ItemIDs returns offending item identifiers in ascending order.
func (e *UnavailableItemsError) ItemIDs() []int64 {
	ids := make([]int64, 0, len(e.Reasons))
	for id := range e.Reasons {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e *UnavailableItemsError) Error() string {
	ids := e.ItemIDs()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d (%s)", id, e.Reasons[id]))
	}
	return "items not available: " + strings.Join(parts, ", ")
}

func (e *UnavailableItemsError) Unwrap() error { return ErrConflict }
