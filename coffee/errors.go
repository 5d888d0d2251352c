/*
errors.go - Centralized error types for the domain

PURPOSE:
  All domain error types in one place. Services wrap these with context via
  fmt.Errorf("%w"); the API layer maps them to HTTP statuses through the
  classification helpers.

ERROR CATEGORIES:
  1. Not-found errors - referenced lot/recipe/event does not exist
  2. Validation errors - bad amounts, missing identity, malformed input
  3. Store errors - surfaced as wrapped driver errors (transient IO)

USAGE:
    if errors.Is(err, coffee.ErrLotNotFound) { ... }

SEE ALSO:
  - types.go: Entities these errors refer to
  - api/handlers.go: HTTP status mapping
*/
package coffee

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrLotNotFound is returned when a referenced lot id does not exist.
	// Decrement and restore signal this explicitly rather than silently
	// no-opping on a missing lot.
	ErrLotNotFound = errors.New("lot not found")

	// ErrRecipeNotFound is returned when a referenced recipe id does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrEventNotFound is returned when a consumption event id does not exist.
	ErrEventNotFound = errors.New("consumption event not found")

	// ErrUsageNotFound is returned when a bean-usage id does not exist.
	ErrUsageNotFound = errors.New("bean usage not found")

	// ErrMissingRecipeID is returned when an unsaved recipe (no assigned id)
	// is passed to the batch executor.
	ErrMissingRecipeID = errors.New("recipe has no id")

	// ErrInvalidAmount is returned for zero or negative consumption amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a rejected field on a create/update request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AmountError reports an invalid consumption amount.
type AmountError struct {
	Amount Grams
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("amount must be positive, got %s", e.Amount)
}

func (e *AmountError) Unwrap() error { return ErrInvalidAmount }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLotNotFound) ||
		errors.Is(err, ErrRecipeNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrUsageNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrMissingRecipeID) ||
		errors.As(err, &ve)
}
