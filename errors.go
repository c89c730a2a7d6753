package mealbudget

import (
	"errors"
	"fmt"
)

// ErrPriceUnavailable marks a single failed price lookup. It is non-fatal: the
// pricer records the item as unpriced and the list is flagged incomplete.
var ErrPriceUnavailable = errors.New("price unavailable")

// GenerationError means the recipe service produced nothing usable.
// It is fatal for the session when raised during initial generation.
type GenerationError struct {
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("recipe generation failed (%s): no parsable recipes", e.Backend)
	}
	return fmt.Sprintf("recipe generation failed (%s): %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// InsufficientRecipesError means the catalog returned too few usable recipes
// to fill a 7-day plan within the repeat allowance.
type InsufficientRecipesError struct {
	Requested int
	Got       int
}

func (e *InsufficientRecipesError) Error() string {
	return fmt.Sprintf("insufficient recipes: requested %d, got %d usable", e.Requested, e.Got)
}
