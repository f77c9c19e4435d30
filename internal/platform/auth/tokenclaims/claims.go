// Package tokenclaims reads the identity claims of a session token without
// verifying its signature. The result is a display hint; the remote service is
// the only authority on whether a token is acceptable.
package tokenclaims

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
)

var (
	ErrMalformed = errors.New("malformed session token")
)

// Claims is the decoded payload of a session token.
type Claims struct {
	Subject domain.SubjectID
	UserID  domain.UserID
	Name    string
	Email   string

	// ExpiresAt is zero when the token carries no exp claim.
	ExpiresAt time.Time
}

// HasExpiry reports whether the token carried an exp claim.
func (c Claims) HasExpiry() bool { return !c.ExpiresAt.IsZero() }

// Credential converts the claims to a session credential.
func (c Claims) Credential() domain.Credential {
	return domain.Credential{
		SubjectID:   c.Subject,
		DisplayName: c.Name,
		Email:       c.Email,
		ExpiresAt:   c.ExpiresAt,
	}
}

type payload struct {
	jwt.RegisteredClaims
	ID    domain.WireID `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
}

// Decode parses token and returns its claims. The signature is not checked.
func Decode(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrMalformed
	}
	var p payload
	if _, _, err := jwt.NewParser().ParseUnverified(token, &p); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	c := Claims{
		Subject: domain.SubjectID(p.Subject),
		UserID:  domain.UserID(p.ID),
		Name:    p.Name,
		Email:   p.Email,
	}
	// The remote service puts the email in sub.
	if c.Email == "" && strings.Contains(p.Subject, "@") {
		c.Email = p.Subject
	}
	if p.ExpiresAt != nil {
		c.ExpiresAt = p.ExpiresAt.Time
	}
	return c, nil
}
