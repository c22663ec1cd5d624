/*
errors.go - Error types for the inventory ledger

ERROR CATEGORIES:
  1. Validation errors - bad or missing input, checked before any mutation
  2. Stock errors      - not enough animals where the caller asked
  3. Lookup errors     - unknown activity, category or property
  4. Storage errors    - the key-value store failed; state was not published

USAGE:
  if errors.Is(err, inventory.ErrInsufficientStock) { ... }

  var stockErr *inventory.InsufficientStockError
  if errors.As(err, &stockErr) {
      fmt.Println(stockErr.Available)
  }
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned when a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientStock is returned when a decrement exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrActivityNotFound is returned when undo targets an unknown activity.
	ErrActivityNotFound = errors.New("activity not found")

	// ErrCategoryNotFound is returned by lookups on unknown categories.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrPropertyNotFound is returned when removing an unknown property.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrNotReversible is returned when undo targets a resolution or reversal.
	ErrNotReversible = errors.New("activity cannot be reversed")

	// ErrInUse is returned when removing a category or property that still
	// holds animals.
	ErrInUse = errors.New("still in use")

	// ErrStorage wraps every persistence failure.
	ErrStorage = errors.New("storage failure")

	// ErrUnknownScenario is returned by LoadScenario for unknown IDs.
	ErrUnknownScenario = errors.New("unknown scenario")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError provides details about a stock shortage.
type InsufficientStockError struct {
	Category  string
	Location  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	where := e.Category
	if e.Location != "" {
		where = e.Category + " at " + e.Location
	}
	return fmt.Sprintf("insufficient stock: %s has %d, requested %d", where, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// InUseError reports a category or property that still holds animals.
type InUseError struct {
	Kind  string // "category" or "property"
	Name  string
	Count int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s %q still holds %d animals", e.Kind, e.Name, e.Count)
}

func (e *InUseError) Unwrap() error {
	return ErrInUse
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict returns true if the request was valid but current state forbids it.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrNotReversible) ||
		errors.Is(err, ErrInUse)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrActivityNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrPropertyNotFound) ||
		errors.Is(err, ErrUnknownScenario)
}
