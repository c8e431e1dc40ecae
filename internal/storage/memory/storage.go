package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/omgplatform/gameserver/internal/model"
	"github.com/omgplatform/gameserver/internal/storage"
)

// Directory is an in-memory implementation of the user directory
type Directory struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

// New creates a new in-memory directory
func New() *Directory {
	return &Directory{
		users: make(map[string]*model.User),
	}
}

// Ensure Directory implements the interface
var _ storage.UserDirectory = (*Directory)(nil)

func (d *Directory) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (d *Directory) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[username]
	return ok, nil
}

func (d *Directory) Create(ctx context.Context, user *model.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[user.Username]; ok {
		return model.ErrUsernameTaken
	}
	u := *user
	d.users[user.Username] = &u
	return nil
}

func (d *Directory) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[username]
	if !ok {
		return model.ErrUserNotFound
	}
	user.LastLoginAt = at
	user.UpdatedAt = at
	return nil
}

func (d *Directory) ListUsers(ctx context.Context) ([]*model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	users := make([]*model.User, 0, len(d.users))
	for _, user := range d.users {
		u := *user
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}
