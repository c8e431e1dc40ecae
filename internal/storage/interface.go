package storage

import (
	"context"
	"time"

	"github.com/omgplatform/gameserver/internal/model"
)

// UserDirectory defines the interface for user account persistence.
// It is the server's only persistence collaborator; everything else is
// in-memory state.
type UserDirectory interface {
	// FindByUsername returns the user or model.ErrUserNotFound
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// ExistsByUsername reports whether an account exists for username
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Create stores a new account (the PasswordHash field carries the
	// already-hashed password). Fails with model.ErrUsernameTaken if
	// the username is in use.
	Create(ctx context.Context, user *model.User) error

	// UpdateLastLogin records a successful login instant
	UpdateLastLogin(ctx context.Context, username string, at time.Time) error

	// ListUsers returns all accounts, ordered by username
	ListUsers(ctx context.Context) ([]*model.User, error)
}
