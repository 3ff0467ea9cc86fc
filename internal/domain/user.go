package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the identity that owns tickets. LocationID is a weak reference into
// the location tree; it survives soft deletion of the location.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       UserStatus
	LocationID   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
