package payments

import "errors"

var (
	ErrNotFound        = errors.New("payment not found")
	ErrInvalidState    = errors.New("payment is not in a state that allows this operation")
	ErrInvalidPayment  = errors.New("invalid payment")
	ErrDeclined        = errors.New("payment declined")
	ErrGatewayMismatch = errors.New("payment belongs to a different gateway")
	ErrConflict        = errors.New("payment was modified concurrently")
)
