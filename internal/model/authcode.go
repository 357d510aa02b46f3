package model

import "time"

const (
	// AuthCodeLength is the number of characters in an issued code.
	AuthCodeLength = 6
	// AuthCodeTTL is how long a pending code can be redeemed.
	AuthCodeTTL = 30 * 24 * time.Hour
)

// AuthCode is one issued one-time authentication code.
// A row is PENDING while IsAuthenticated is false and REDEEMED afterwards.
type AuthCode struct {
	ID              int64
	UserID          int64
	Code            string
	IsAuthenticated bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a AuthCode) Pending() bool {
	return !a.IsAuthenticated
}

// Expired reports whether the code is no longer redeemable at now.
// The instant created_at+ttl is already expired.
func (a AuthCode) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(a.CreatedAt.Add(ttl))
}
