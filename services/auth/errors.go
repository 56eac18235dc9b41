package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidOTP         = errors.New("invalid OTP")
	ErrUnauthorized       = errors.New("invalid or expired session")
	ErrSuspended          = errors.New("account suspended")
	ErrInvalidRole        = errors.New("invalid role")
)
