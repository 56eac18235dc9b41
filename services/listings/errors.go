package listings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("not allowed to modify this record")
	ErrInvalidState = errors.New("operation not allowed in the current status")
	ErrContactInfo  = errors.New("contact details are not allowed")
	ErrInvalidInput = errors.New("invalid input")
)

// ContactInfoError lists the violations found in a submitted field.
type ContactInfoError struct {
	Field      string
	Violations []string
}

func (e *ContactInfoError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, strings.Join(e.Violations, "; "))
}

func (e *ContactInfoError) Is(target error) bool {
	return target == ErrContactInfo
}
