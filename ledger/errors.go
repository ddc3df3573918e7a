/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As; every failure path leaves the
  in-memory record consistent and re-editable.

ERROR CATEGORIES:
  1. Validation errors - A proposed value violates a field invariant
  2. Lock violations   - Edit/removal attempted on a locked row
  3. Persistence       - The external document store rejected a call

SEE ALSO:
  - rowstate.go: Raises lock violations
  - arithmetic.go: Raises validation errors
  - session.go: Wraps store failures
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRowLocked is returned when a field write or removal targets a
	// locked row without the explicit edit gesture. Callers treat it as a
	// guarded no-op, not a hard failure.
	ErrRowLocked = errors.New("row is locked")

	// ErrRowNotFound is returned for an out-of-range row index.
	ErrRowNotFound = errors.New("row index out of range")

	// ErrAdjustmentRow is returned when an operation valid only for
	// primary rows targets a system-generated adjustment row.
	ErrAdjustmentRow = errors.New("operation not valid for adjustment row")

	// ErrNoPayments is returned when a balance payment is requested but
	// the record has no visible (non-adjustment) payment row yet.
	ErrNoPayments = errors.New("no payment row to settle against")

	// ErrInvalidDateRange is returned when an end date precedes its start.
	ErrInvalidDateRange = errors.New("end date before start date")

	// ErrUnknownField is returned for a field name outside the canonical set.
	ErrUnknownField = errors.New("unknown row field")

	// ErrRecordNotFound is returned by stores when no document exists at
	// the requested key.
	ErrRecordNotFound = errors.New("record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a field-level invariant violation. The proposed
// value is rejected before any live state mutates.
type ValidationError struct {
	Field   string // field path, e.g. "payments[2].paidAmount"
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every rejected field of one submission.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%d fields rejected (first: %s)", len(e), e[0].Error())
}

// LockViolationError records which row refused a mutation.
type LockViolationError struct {
	Collection string // "payments" or "workers"
	Index      int
	Op         string // "edit" or "remove"
}

func (e *LockViolationError) Error() string {
	return fmt.Sprintf("%s[%d]: %s rejected, row is locked", e.Collection, e.Index, e.Op)
}

func (e *LockViolationError) Unwrap() error { return ErrRowLocked }

// PersistenceError wraps a failure from the external document store. The
// pre-save live snapshot is preserved so the caller can retry.
type PersistenceError struct {
	Op  string // "load", "save", "clear"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed for %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
