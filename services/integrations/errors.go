package integrations

import "errors"

var (
	ErrUnknownCategory = errors.New("unknown integration category")
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrWrongType is returned by Resolve when the active provider does not
	// implement the requested capability.
	ErrWrongType = errors.New("provider does not implement capability")
)
