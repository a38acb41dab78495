package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks rejected input. No state changes when it is returned.
	ErrValidation = errors.New("validation failed")
	// ErrStorage marks a failure of the backing repository.
	ErrStorage = errors.New("storage failure")
	// ErrExport marks a failure while rendering an export document.
	ErrExport = errors.New("export failed")
	// ErrUnsupportedFormat is returned for an unknown export format.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported export format", ErrValidation)
)

// ValidationError describes a missing or invalid submission field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
