package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/omgplatform/gameserver/internal/dependencies/mocks"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type CodecSuite struct {
	suite.Suite
	clock *mocks.MockClock
	codec *Codec
}

func TestCodecSuite(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}

func (s *CodecSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	codec, err := New(Config{Secret: testSecret, TTL: time.Hour}, s.clock)
	s.Require().NoError(err)
	s.codec = codec
}

func (s *CodecSuite) TestNewRejectsShortSecret() {
	_, err := New(Config{Secret: "too-short"}, s.clock)
	s.Error(err)
}

func (s *CodecSuite) TestNewDefaultsTTL() {
	codec, err := New(Config{Secret: testSecret}, s.clock)
	s.Require().NoError(err)
	s.Equal(DefaultTTL, codec.ttl)
}

func (s *CodecSuite) TestMintAndVerifyRoundTrip() {
	tok, err := s.codec.Mint("alice")
	s.Require().NoError(err)
	s.NotEmpty(tok)

	subject, err := s.codec.Verify(tok)
	s.Require().NoError(err)
	s.Equal("alice", subject)
}

func (s *CodecSuite) TestMintRejectsEmptySubject() {
	_, err := s.codec.Mint("")
	s.Error(err)
}

func (s *CodecSuite) TestVerifySucceedsJustBeforeExpiry() {
	tok, _ := s.codec.Mint("alice")

	s.clock.Advance(time.Hour - time.Second)

	subject, err := s.codec.Verify(tok)
	s.Require().NoError(err)
	s.Equal("alice", subject)
}

func (s *CodecSuite) TestVerifyFailsAfterExpiry() {
	tok, _ := s.codec.Mint("alice")

	s.clock.Advance(time.Hour + time.Second)

	_, err := s.codec.Verify(tok)
	s.ErrorIs(err, ErrTokenExpired)
}

func (s *CodecSuite) TestVerifyFailsWithTamperedSignature() {
	tok, _ := s.codec.Mint("alice")

	// Flip a bit in the signature segment
	i := strings.LastIndex(tok, ".") + 1
	sig := []byte(tok[i:])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := tok[:i] + string(sig)

	_, err := s.codec.Verify(tampered)
	s.ErrorIs(err, ErrTokenSignatureInvalid)
}

func (s *CodecSuite) TestVerifyFailsWithDifferentSecret() {
	other, err := New(Config{Secret: "ffffffffffffffffffffffffffffffff", TTL: time.Hour}, s.clock)
	s.Require().NoError(err)

	tok, _ := s.codec.Mint("alice")

	_, err = other.Verify(tok)
	s.ErrorIs(err, ErrTokenSignatureInvalid)
}

func (s *CodecSuite) TestVerifyFailsWithGarbage() {
	_, err := s.codec.Verify("not-a-token")
	s.ErrorIs(err, ErrTokenMalformed)
}

func (s *CodecSuite) TestVerifyFailsWithEmptyToken() {
	_, err := s.codec.Verify("")
	s.ErrorIs(err, ErrTokenMalformed)
}
