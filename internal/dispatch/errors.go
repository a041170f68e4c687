package dispatch

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedMode   = errors.New("unsupported print mode")
	ErrMissingField      = errors.New("missing required field")
	ErrConflictingFields = errors.New("conflicting document fields")
	ErrInvalidEncoding   = errors.New("invalid inline encoding")
	ErrFetchFailed       = errors.New("document fetch failed")
	ErrSpoolFailed       = errors.New("spooler rejected job")
	ErrConnectionFailed  = errors.New("printer connection failed")
	ErrIPPFailed         = errors.New("ipp exchange failed")
)

// IsValidationError reports whether err was caused by a malformed job
// request. These failures happen before any file or network I/O.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnsupportedMode) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrConflictingFields) ||
		errors.Is(err, ErrInvalidEncoding)
}

func missingField(field string, mode Mode) error {
	return fmt.Errorf("%w: %s (mode %s)", ErrMissingField, field, mode)
}
