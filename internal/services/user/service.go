package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/omgplatform/gameserver/internal/dependencies/clock"
	"github.com/omgplatform/gameserver/internal/model"
	"github.com/omgplatform/gameserver/internal/storage"
	"github.com/omgplatform/gameserver/internal/token"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
)

// Policy validates a credential field. The default accepts anything
// non-empty after trimming; deployments can tighten it.
type Policy func(value string) error

// DefaultPolicy rejects values that are empty after trimming
func DefaultPolicy(field string) Policy {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrValidation, field)
		}
		return nil
	}
}

// Service handles account registration and password login
type Service struct {
	directory storage.UserDirectory
	codec     *token.Codec
	clock     clock.Clock
	logger    *slog.Logger

	usernamePolicy Policy
	passwordPolicy Policy
}

// New creates a user service with the default credential policies
func New(directory storage.UserDirectory, codec *token.Codec, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		directory:      directory,
		codec:          codec,
		clock:          clk,
		logger:         logger.With(slog.String("component", "users")),
		usernamePolicy: DefaultPolicy("username"),
		passwordPolicy: DefaultPolicy("password"),
	}
}

// SetPolicies overrides the credential validation policies
func (s *Service) SetPolicies(username, password Policy) {
	s.usernamePolicy = username
	s.passwordPolicy = password
}

// RegisterParams carries the fields of a registration request
type RegisterParams struct {
	Username    string
	Password    string
	FullName    string
	DateOfBirth time.Time
}

// Register creates a new account with a bcrypt-hashed password
func (s *Service) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	if err := s.usernamePolicy(params.Username); err != nil {
		return nil, err
	}
	if err := s.passwordPolicy(params.Password); err != nil {
		return nil, err
	}
	if params.DateOfBirth.IsZero() {
		return nil, fmt.Errorf("%w: dateOfBirth is required", ErrValidation)
	}

	username := strings.TrimSpace(params.Username)

	exists, err := s.directory.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(params.FullName),
		DateOfBirth:  params.DateOfBirth,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.directory.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("username", username))
	return user, nil
}

// Login checks the credentials, records the login instant, and mints a
// bearer token for the account.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.directory.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := s.clock.Now()
	if err := s.directory.UpdateLastLogin(ctx, user.Username, now); err != nil {
		return nil, "", err
	}
	user.LastLoginAt = now

	tok, err := s.codec.Mint(user.Username)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user logged in", slog.String("username", user.Username))
	return user, tok, nil
}

// FindByUsername looks up one account
func (s *Service) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.directory.FindByUsername(ctx, username)
}

// ListUsers returns all registered accounts
func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.directory.ListUsers(ctx)
}
