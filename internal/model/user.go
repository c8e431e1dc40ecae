package model

import "time"

// User represents a registered account.
// Username is the stable identity; it never changes after registration.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"` // bcrypt hash, never exposed on the API
	FullName     string    `json:"fullName,omitempty"`
	DateOfBirth  time.Time `json:"dateOfBirth"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastLoginAt  time.Time `json:"lastLoginAt,omitempty"`
}
