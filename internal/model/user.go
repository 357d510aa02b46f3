package model

import "time"

// User is the identity anchor for a device/installation.
type User struct {
	ID        int64     `json:"user_id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
