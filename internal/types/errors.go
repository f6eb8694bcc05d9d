// =============================================================================
// Inventory Count Automation - Error Taxonomy
// =============================================================================
//
// Fatal conditions raised by the count-and-match pipeline. They live in this
// package so that layout, workbook, balance and the file manager can all
// report them without importing each other.
//
//   ErrConfiguration  : invalid layout or configuration (raised eagerly)
//   ErrSourceNotFound : count directory, count files or spreadsheet missing
//   ErrNoActiveTable  : the spreadsheet has no usable sheet
//   ErrDuplicateKey   : repeated key in the key column (strict index only)
//
// Barcodes that are counted but absent from the spreadsheet are NOT errors.
// They are reported in balance.Result.NotFound.
//
// =============================================================================

package types

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrConfiguration marks every invalid layout or configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrSourceNotFound marks a missing input directory, input file or spreadsheet.
	ErrSourceNotFound = errors.New("source not found")

	// ErrNoActiveTable marks a workbook without a usable sheet.
	ErrNoActiveTable = errors.New("no active table")

	// ErrDuplicateKey marks a key that appears on more than one row.
	ErrDuplicateKey = errors.New("duplicate key")
)

// =============================================================================
// CONFIGURATION ERROR
// =============================================================================

// ConfigError describes an invalid configuration value.
type ConfigError struct {
	// Field is the configuration key that failed validation.
	Field string

	// Message is a human-readable explanation.
	Message string

	// Err is the underlying cause, if any (e.g. a regexp syntax error).
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports ConfigError as ErrConfiguration.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError builds a ConfigError without an underlying cause.
func NewConfigError(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// SOURCE ERRORS
// =============================================================================

// SourceNotFoundError names the resource that could not be located.
type SourceNotFoundError struct {
	// Kind describes the resource, e.g. "count directory" or "spreadsheet".
	Kind string

	// Path is the missing location.
	Path string

	// Detail is optional extra context.
	Detail string
}

// Error implements the error interface.
func (e *SourceNotFoundError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s not found: %s (%s)", e.Kind, e.Path, e.Detail)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Path)
}

// Is reports SourceNotFoundError as ErrSourceNotFound.
func (e *SourceNotFoundError) Is(target error) bool {
	return target == ErrSourceNotFound
}

// NoActiveTableError is returned when a workbook has no sheet to work on.
type NoActiveTableError struct {
	Path  string
	Sheet string
}

// Error implements the error interface.
func (e *NoActiveTableError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("sheet %q not found in workbook %s", e.Sheet, e.Path)
	}
	return fmt.Sprintf("workbook %s has no active sheet", e.Path)
}

// Is reports NoActiveTableError as ErrNoActiveTable.
func (e *NoActiveTableError) Is(target error) bool {
	return target == ErrNoActiveTable
}

// =============================================================================
// INDEX ERRORS
// =============================================================================

// DuplicateKeyError is returned by a strict index build when a key repeats.
type DuplicateKeyError struct {
	Key       string
	FirstRow  int
	RepeatRow int
}

// Error implements the error interface.
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("key %q appears on rows %d and %d", e.Key, e.FirstRow, e.RepeatRow)
}

// Is reports DuplicateKeyError as ErrDuplicateKey.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}
