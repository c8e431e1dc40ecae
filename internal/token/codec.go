package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/omgplatform/gameserver/internal/dependencies/clock"
)

// Errors
var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token is expired")
)

// MinSecretLen is the minimum accepted signing secret length in bytes.
// HMAC-SHA-256 keys shorter than the hash size weaken the MAC.
const MinSecretLen = 32

// Config holds configuration for the token codec
type Config struct {
	// Secret is the HMAC-SHA-256 signing key. Must be at least MinSecretLen bytes.
	Secret string
	// TTL is how long minted tokens remain valid
	TTL time.Duration
}

// DefaultTTL is the token lifetime when none is configured
const DefaultTTL = 1440 * time.Minute

// Codec mints and verifies HMAC-SHA-256 signed bearer tokens carrying a
// subject and expiry. It holds no mutable state and is safe for
// concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// New creates a Codec. It fails if the secret is too short to be a safe
// HMAC key.
func New(cfg Config, clk clock.Clock) (*Codec, error) {
	if len(cfg.Secret) < MinSecretLen {
		return nil, fmt.Errorf("token secret must be at least %d bytes, got %d", MinSecretLen, len(cfg.Secret))
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Codec{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		clock:  clk,
	}, nil
}

// Mint produces a signed token for the given subject, valid from now
// until now+TTL.
func (c *Codec) Mint(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject must not be empty")
	}

	now := c.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its subject. Expiry is
// checked against the codec's clock so tests can control time.
func (c *Codec) Verify(tokenStr string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.clock.Now),
	)

	var claims jwt.RegisteredClaims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrTokenSignatureInvalid
		default:
			return "", ErrTokenMalformed
		}
	}

	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
