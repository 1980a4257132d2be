/*
errors.go - Centralized error types for the calculation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Calculator packages return these directly or wrap them with context.

ERROR CATEGORIES:
  1. Validation errors - Missing or out-of-range required fields
  2. Parse errors - Non-numeric amounts, unparseable dates
  3. Formatting errors - Legal-words conversion failures
  4. Persistence errors - Record store failures

USAGE:
  if errors.Is(err, generic.ErrValidation) {
      // report to caller, never persist
  }

  var perr *generic.ParseError
  if errors.As(err, &perr) {
      log.Printf("bad value %q in %s", perr.Raw, perr.Field)
  }

SEE ALSO:
  - words.go: Returns FormattingError
  - ledger.go: Returns PersistenceError
  - batch/: Turns Validation/Parse errors into per-row reasons
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when a required field is missing or out of range.
	// Validation failures are reported to the caller and never persisted.
	ErrValidation = errors.New("validation failed")

	// ErrParse is returned when a raw value cannot be parsed as a number or date.
	ErrParse = errors.New("parse failed")

	// ErrFormatting is returned when an amount cannot be converted to legal words.
	ErrFormatting = errors.New("formatting failed")

	// ErrPersistence is returned when the record store rejects an insert or query.
	ErrPersistence = errors.New("persistence failed")

	// ErrUnknownTable is returned when a store is asked about a table it does not own.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownColumn is returned when an insert or sum names a column the table lacks.
	ErrUnknownColumn = errors.New("unknown column")
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
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ParseError carries the raw value that failed to parse.
type ParseError struct {
	Field string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse %q", e.Field, e.Raw)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// FormattingError reports a legal-words conversion failure.
type FormattingError struct {
	Input  string
	Reason string
}

func (e *FormattingError) Error() string {
	return fmt.Sprintf("cannot convert %q to words: %s", e.Input, e.Reason)
}

func (e *FormattingError) Unwrap() error { return ErrFormatting }

// PersistenceError wraps a store failure for one table.
type PersistenceError struct {
	Table TableName
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPersistence}
	}
	return []error{ErrPersistence, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrParse)
}

// IsPersistence returns true if the error came from the record store.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}
