package services

import (
	"errors"
	"fmt"

	"delivery_notes_app_go/models"
)

// Error categories. Every specific error below wraps exactly one of them.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrState      = errors.New("invalid state")

	// ErrPersistence marks a mutation whose snapshot could not be saved
	ErrPersistence = errors.New("failed to persist state")
)

// Validation errors
var (
	ErrEmptyName        = fmt.Errorf("%w: name is required", ErrValidation)
	ErrEmptyDescription = fmt.Errorf("%w: description is required", ErrValidation)
	ErrEmptyCode        = fmt.Errorf("%w: code is required", ErrValidation)
	ErrEmptyItems       = fmt.Errorf("%w: items must not be empty", ErrValidation)
	ErrInvalidQuantity  = fmt.Errorf("%w: quantity must be a non-negative integer", ErrValidation)
	ErrInvalidID        = fmt.Errorf("%w: malformed id", ErrValidation)
	ErrInvalidWorkbook  = fmt.Errorf("%w: invalid workbook", ErrValidation)
	ErrInvalidDate      = fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
)

// Conflict errors
var (
	ErrDuplicateCode   = fmt.Errorf("%w: code already linked to a product", ErrConflict)
	ErrCodeCapExceeded = fmt.Errorf("%w: a product holds at most %d codes", ErrConflict, models.MaxCodesPerProduct)
)

// Not found errors
var (
	ErrBranchNotFound  = fmt.Errorf("%w: branch", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("%w: product", ErrNotFound)
	ErrNoteNotFound    = fmt.Errorf("%w: delivery note", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("%w: order", ErrNotFound)
	ErrInvalidIndex    = fmt.Errorf("%w: line item index", ErrNotFound)

	// ErrUnknownCode is recoverable by creating or linking a catalog entry
	ErrUnknownCode = fmt.Errorf("%w: code is not linked to any product", ErrNotFound)
	// ErrNotInNote is recoverable only by acknowledging the mismatch
	ErrNotInNote = fmt.Errorf("%w: product is not part of this delivery note", ErrNotFound)
)

// State errors
var (
	ErrNotFullyMatched = fmt.Errorf("%w: received quantities do not match expected quantities", ErrState)
	ErrInvalidAction   = fmt.Errorf("%w: unknown close action", ErrState)
	ErrNoValidRows     = fmt.Errorf("%w: order has no rows with a positive quantity for a known branch", ErrState)
)

// Reason returns a short machine-readable code for err, or "" for
// errors outside the domain taxonomy.
func Reason(err error) string {
	reasons := []struct {
		target error
		reason string
	}{
		{ErrUnknownCode, "unknown_code"},
		{ErrNotInNote, "not_in_note"},
		{ErrDuplicateCode, "duplicate_code"},
		{ErrCodeCapExceeded, "code_cap_exceeded"},
		{ErrNotFullyMatched, "not_fully_matched"},
		{ErrInvalidAction, "invalid_action"},
		{ErrNoValidRows, "no_valid_rows"},
		{ErrInvalidIndex, "invalid_index"},
		{ErrBranchNotFound, "branch_not_found"},
		{ErrProductNotFound, "product_not_found"},
		{ErrNoteNotFound, "note_not_found"},
		{ErrOrderNotFound, "order_not_found"},
		{ErrInvalidWorkbook, "invalid_workbook"},
		{ErrValidation, "validation"},
		{ErrPersistence, "persistence"},
	}
	for _, r := range reasons {
		if errors.Is(err, r.target) {
			return r.reason
		}
	}
	return ""
}
