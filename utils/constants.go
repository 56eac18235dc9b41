// File: utils/constants.go
package utils

import "time"

// Redis key prefixes. Every store sharing a Redis database namespaces its
// keys with one of these.
const (
	SelectionKeyPrefix = "integrations:"
	OTPKeyPrefix       = "otp:"
	InterestKeyPrefix  = "interests:"
	QuestionKeyPrefix  = "questions:"
)

// OTPTTL is how long an issued OTP stays valid.
const OTPTTL = 5 * time.Minute

// SessionTTL is the lifetime of a session token.
const SessionTTL = 7 * 24 * time.Hour
