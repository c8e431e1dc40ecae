package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omgplatform/gameserver/internal/model"
	"github.com/omgplatform/gameserver/internal/storage"
)

// Directory is a Redis-backed implementation of the user directory
type Directory struct {
	client *redis.Client
	cfg    Config
}

// New creates a Redis directory and verifies the connection
func New(cfg Config) (*Directory, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Directory{client: client, cfg: cfg}, nil
}

// NewWithClient creates a Redis directory with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Directory {
	return &Directory{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (d *Directory) Close() error {
	return d.client.Close()
}

// Ensure Directory implements the interface
var _ storage.UserDirectory = (*Directory)(nil)

func (d *Directory) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	data, err := d.client.Get(ctx, userKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Directory) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	n, err := d.client.Exists(ctx, userKey(username)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *Directory) Create(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	// SetNX makes the uniqueness check and the insert one atomic step
	set, err := d.client.SetNX(ctx, userKey(user.Username), data, 0).Result()
	if err != nil {
		return err
	}
	if !set {
		return model.ErrUsernameTaken
	}

	return d.client.SAdd(ctx, usernameSetKey(), user.Username).Err()
}

func (d *Directory) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	user, err := d.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	user.LastLoginAt = at
	user.UpdatedAt = at

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return d.client.Set(ctx, userKey(username), data, 0).Err()
}

func (d *Directory) ListUsers(ctx context.Context) ([]*model.User, error) {
	usernames, err := d.client.SMembers(ctx, usernameSetKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(usernames) == 0 {
		return nil, nil
	}

	keys := make([]string, len(usernames))
	for i, username := range usernames {
		keys[i] = userKey(username)
	}

	values, err := d.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	users := make([]*model.User, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// Username in the index but record gone; skip
			continue
		}
		var user model.User
		if err := json.Unmarshal([]byte(str), &user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}
