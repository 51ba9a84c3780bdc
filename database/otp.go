package database

import (
	"time"
)

// An OTP produces one-time password codes for a single secret. Implementations
// live outside this package; HOTP implementations keep their own counter.
type OTP interface {
	// Code returns the zero-padded code valid at the given time.
	Code(at time.Time) (string, error)

	// URI returns the canonical otpauth:// URI for the secret.
	URI() string
}

// An OTPGenerator builds an OTP from the text stored in an entry's otp field.
type OTPGenerator func(secret string) (OTP, error)
