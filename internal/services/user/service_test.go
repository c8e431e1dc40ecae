package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/omgplatform/gameserver/internal/dependencies/mocks"
	"github.com/omgplatform/gameserver/internal/model"
	"github.com/omgplatform/gameserver/internal/storage/memory"
	"github.com/omgplatform/gameserver/internal/testutil"
	"github.com/omgplatform/gameserver/internal/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type ServiceSuite struct {
	suite.Suite
	directory *memory.Directory
	clock     *mocks.MockClock
	codec     *token.Codec
	service   *Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.directory = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	codec, err := token.New(token.Config{Secret: testSecret, TTL: time.Hour}, s.clock)
	s.Require().NoError(err)
	s.codec = codec

	s.service = New(s.directory, codec, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) registerAlice() *model.User {
	user, err := s.service.Register(s.ctx, RegisterParams{
		Username:    "alice",
		Password:    "pw123",
		FullName:    "Alice Example",
		DateOfBirth: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	return user
}

// Register tests

func (s *ServiceSuite) TestRegisterSucceeds() {
	user := s.registerAlice()

	s.Equal("alice", user.Username)
	s.NotEmpty(user.PasswordHash)
	s.NotEqual("pw123", user.PasswordHash)
	s.Equal(s.clock.Now(), user.CreatedAt)
}

func (s *ServiceSuite) TestRegisterPersistsUser() {
	s.registerAlice()

	stored, err := s.directory.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("Alice Example", stored.FullName)
}

func (s *ServiceSuite) TestRegisterTrimsUsername() {
	_, err := s.service.Register(s.ctx, RegisterParams{
		Username:    "  alice  ",
		Password:    "pw123",
		DateOfBirth: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	_, err = s.directory.FindByUsername(s.ctx, "alice")
	s.NoError(err)
}

func (s *ServiceSuite) TestRegisterRejectsBlankUsername() {
	_, err := s.service.Register(s.ctx, RegisterParams{
		Username:    "   ",
		Password:    "pw123",
		DateOfBirth: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestRegisterRejectsBlankPassword() {
	_, err := s.service.Register(s.ctx, RegisterParams{
		Username:    "alice",
		Password:    "",
		DateOfBirth: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestRegisterRequiresDateOfBirth() {
	_, err := s.service.Register(s.ctx, RegisterParams{
		Username: "alice",
		Password: "pw123",
	})
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestRegisterFailsIfUsernameTaken() {
	s.registerAlice()

	_, err := s.service.Register(s.ctx, RegisterParams{
		Username:    "alice",
		Password:    "other",
		DateOfBirth: time.Date(1999, 5, 5, 0, 0, 0, 0, time.UTC),
	})
	s.ErrorIs(err, model.ErrUsernameTaken)
}

// Login tests

func (s *ServiceSuite) TestLoginReturnsVerifiableToken() {
	s.registerAlice()

	_, tok, err := s.service.Login(s.ctx, "alice", "pw123")
	s.Require().NoError(err)

	subject, err := s.codec.Verify(tok)
	s.Require().NoError(err)
	s.Equal("alice", subject)
}

func (s *ServiceSuite) TestLoginUpdatesLastLogin() {
	s.registerAlice()
	s.clock.Advance(time.Hour)

	user, _, err := s.service.Login(s.ctx, "alice", "pw123")
	s.Require().NoError(err)
	s.Equal(s.clock.Now(), user.LastLoginAt)

	stored, _ := s.directory.FindByUsername(s.ctx, "alice")
	s.Equal(s.clock.Now(), stored.LastLoginAt)
}

func (s *ServiceSuite) TestLoginFailsWithWrongPassword() {
	s.registerAlice()

	_, _, err := s.service.Login(s.ctx, "alice", "other")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFailsWithUnknownUser() {
	_, _, err := s.service.Login(s.ctx, "nobody", "pw123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

// Policy extension point

func (s *ServiceSuite) TestCustomPasswordPolicy() {
	s.service.SetPolicies(DefaultPolicy("username"), func(value string) error {
		if len(value) < 8 {
			return ErrValidation
		}
		return nil
	})

	_, err := s.service.Register(s.ctx, RegisterParams{
		Username:    "alice",
		Password:    "short",
		DateOfBirth: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.ErrorIs(err, ErrValidation)
}
