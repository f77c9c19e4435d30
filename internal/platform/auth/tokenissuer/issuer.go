// Package tokenissuer mints and verifies the HS256 session tokens of the
// development API.
package tokenissuer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/clock"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
)

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	Subject domain.SubjectID
	UserID  domain.UserID
	Name    string
}

type claims struct {
	jwt.RegisteredClaims
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Issuer struct {
	key   []byte
	ttl   time.Duration
	clock clock.Clock
}

func New(key []byte, ttl time.Duration, clk clock.Clock) (*Issuer, error) {
	if len(key) < 32 {
		return nil, fmt.Errorf("signing key must be at least 32 bytes, got %d", len(key))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Issuer{key: key, ttl: ttl, clock: clk}, nil
}

// Mint issues a token for u: sub is the email, id and name mirror the account.
func (i *Issuer) Mint(u domain.User) (string, time.Time, error) {
	now := i.clock.Now().UTC()
	exp := now.Add(i.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		ID:   string(u.ID),
		Name: u.Name,
	})
	signed, err := tok.SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and returns the caller identity.
func (i *Issuer) Verify(token string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	if c.Subject == "" || c.ID == "" {
		return Identity{}, ErrUnauthorized
	}
	return Identity{
		Subject: domain.SubjectID(c.Subject),
		UserID:  domain.UserID(c.ID),
		Name:    c.Name,
	}, nil
}
