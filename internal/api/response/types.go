package response

import (
	"time"

	"github.com/omgplatform/gameserver/internal/model"
)

// dateLayout is the wire format for civil dates
const dateLayout = "2006-01-02"

// User represents an account in API responses. The password hash never
// appears here.
type User struct {
	Username    string `json:"username"`
	FullName    string `json:"fullName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	LastLoginAt string `json:"lastLoginAt,omitempty"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	resp := User{
		Username: u.Username,
		FullName: u.FullName,
	}
	if !u.DateOfBirth.IsZero() {
		resp.DateOfBirth = u.DateOfBirth.Format(dateLayout)
	}
	if !u.LastLoginAt.IsZero() {
		resp.LastLoginAt = u.LastLoginAt.Format(time.RFC3339)
	}
	return resp
}

// RegisterResponse is the response for a successful registration
type RegisterResponse struct {
	Username string `json:"username"`
}

// LoginResponse is the response for a successful login
type LoginResponse struct {
	Token string `json:"token"`
}
