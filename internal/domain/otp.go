package domain

import "time"

// OTP policy constants. An entry dies on successful verification, on lazy
// expiry, or when one of the caps is breached.
const (
	OTPTTL         = 5 * time.Minute
	OTPMaxAttempts = 5
	OTPMaxSends    = 5
)

// OTPEntry is one outstanding login code. The token is the opaque capability
// handed to the client; the code never crosses the network except by email.
type OTPEntry struct {
	Token     string
	Email     string
	Code      string
	ExpiresAt time.Time
	// Attempts counts failed verifications since the last code generation.
	Attempts int
	// SentCount counts sends and resends over the entry's lifetime.
	SentCount int
}

// Expired reports whether the entry is past its expiry at the given instant.
func (e *OTPEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
