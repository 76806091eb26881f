package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrInputSchema      = errors.New("input schema mismatch")
	ErrColumnMissing    = fmt.Errorf("%w: required column missing", ErrInputSchema)
	ErrNonNumericScore  = fmt.Errorf("%w: non-numeric value in numeric column", ErrInputSchema)
	ErrEmptyInput       = errors.New("no valid records after loading")
	ErrContrastNotFound = errors.New("contrast not found in input data")

	// Output errors
	ErrOutputWrite = errors.New("cannot write output file")

	// Registry errors
	ErrRunNotFound = errors.New("run not found")
)

// Error constructors with context

// NewColumnMissingError reports a required column absent from a table header.
func NewColumnMissingError(column, file string) error {
	return fmt.Errorf("%w: %q in %s", ErrColumnMissing, column, file)
}

// NewNonNumericError reports an unparseable numeric cell. This aborts the
// whole load: a non-numeric score means the file has the wrong schema, not
// routine missing data.
func NewNonNumericError(column string, row int, value string) error {
	return fmt.Errorf("%w: column %q row %d value %q", ErrNonNumericScore, column, row, value)
}

// NewOutputWriteError attaches the attempted destination path.
func NewOutputWriteError(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrOutputWrite, path, err)
}

// NewContrastNotFoundError lists the contrasts that were available.
func NewContrastNotFoundError(contrast string, available []string) error {
	return fmt.Errorf("%w: %q (available: %v)", ErrContrastNotFound, contrast, available)
}

// Error checking helpers
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrInputSchema)
}

func IsEmptyInputError(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}

func IsOutputWriteError(err error) bool {
	return errors.Is(err, ErrOutputWrite)
}
