package billing

import "errors"

var (
	ErrInvalidPricing = errors.New("invalid pricing")
	ErrForbidden      = errors.New("not allowed")
	ErrAlreadyActive  = errors.New("entitlement already active")
	ErrNotPayable     = errors.New("listing cannot be paid for in its current status")
)
