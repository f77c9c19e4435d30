// Package session owns the authenticated session: the opaque token, the
// credential decoded from it, and the rules for establishing, restoring and
// tearing it down. The in-memory session never diverges from what is persisted.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/platform/auth/tokenclaims"
	"github.com/Overland-East-Bay/ridebook/internal/platform/logging"
	clockport "github.com/Overland-East-Bay/ridebook/internal/ports/out/clock"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/tokenstore"
)

// DefaultTTL is the assumed lifetime of a token whose expiry cannot be read.
const DefaultTTL = time.Hour

type Options struct {
	DefaultTTL time.Duration
	Logger     *slog.Logger
}

type Store struct {
	tokens   tokenstore.Store
	accounts gateway.Accounts
	auth     gateway.Authorizer
	clk      clockport.Clock
	log      *slog.Logger

	defaultTTL time.Duration

	// opMu serializes establish/teardown so persistence and memory change together.
	opMu sync.Mutex

	mu    sync.RWMutex
	token string
	cred  *domain.Credential
}

func NewStore(tokens tokenstore.Store, accounts gateway.Accounts, auth gateway.Authorizer, clk clockport.Clock, opts Options) *Store {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		tokens:     tokens,
		accounts:   accounts,
		auth:       auth,
		clk:        clk,
		log:        logging.OrDiscard(opts.Logger).With("component", "session"),
		defaultTTL: ttl,
	}
}

// Restore loads a previously persisted token. A token that cannot be decoded,
// carries no expiry, or has expired is discarded and the store stays logged out.
// Only a failure to read storage is returned.
func (s *Store) Restore(ctx context.Context) error {
	token, ok, err := s.tokens.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !ok {
		return nil
	}

	claims, err := tokenclaims.Decode(token)
	switch {
	case err != nil:
		s.log.Warn("discarding undecodable session token", "err", err)
		s.discard(ctx)
		return nil
	case !claims.HasExpiry():
		s.log.Warn("discarding session token without expiry")
		s.discard(ctx)
		return nil
	case !claims.Credential().Valid(s.clk.Now()):
		s.log.Info("discarding expired session token", "expired_at", claims.ExpiresAt)
		s.discard(ctx)
		return nil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()
	cred := claims.Credential()
	s.set(token, &cred)
	s.log.Debug("session restored", "subject", cred.SubjectID, "expires_at", cred.ExpiresAt)
	return nil
}

func (s *Store) discard(ctx context.Context) {
	if err := s.Teardown(ctx); err != nil {
		s.log.Warn("failed to remove discarded session token", "err", err)
	}
}

// Establish persists token and, once persisted, installs the credential for user.
// If persisting fails the previous session is left untouched.
func (s *Store) Establish(ctx context.Context, token string, user domain.User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("establish session: %w", tokenstore.ErrEmptyToken)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.tokens.Save(ctx, token); err != nil {
		return fmt.Errorf("establish session: %w", err)
	}

	cred := domain.Credential{
		SubjectID:   subjectFor(user),
		DisplayName: user.Name,
		Email:       user.Email,
		ExpiresAt:   s.expiryHint(token),
	}
	s.set(token, &cred)
	s.log.Info("session established", "subject", cred.SubjectID, "expires_at", cred.ExpiresAt)
	return nil
}

func subjectFor(u domain.User) domain.SubjectID {
	if u.Email != "" {
		return domain.SubjectID(u.Email)
	}
	return domain.SubjectID(u.ID)
}

// expiryHint reads exp from token, falling back to now plus the default TTL.
func (s *Store) expiryHint(token string) time.Time {
	if c, err := tokenclaims.Decode(token); err == nil && c.HasExpiry() {
		return c.ExpiresAt
	}
	return s.clk.Now().Add(s.defaultTTL)
}

// Teardown removes the persisted token, then clears the session. It is idempotent.
// If removal fails the in-memory session is kept and the error returned.
func (s *Store) Teardown(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.tokens.Delete(ctx); err != nil {
		return fmt.Errorf("teardown session: %w", err)
	}
	s.mu.Lock()
	had := s.cred != nil
	s.token, s.cred = "", nil
	s.mu.Unlock()
	s.auth.ClearToken()
	if had {
		s.log.Info("session cleared")
	}
	return nil
}

func (s *Store) set(token string, cred *domain.Credential) {
	s.mu.Lock()
	s.token, s.cred = token, cred
	s.mu.Unlock()
	s.auth.SetToken(token)
}

// IsAuthenticated reports whether a credential is held and not yet expired.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred != nil && s.cred.Valid(s.clk.Now())
}

// Credential returns a copy of the current credential, if any. An expired
// credential is still returned; check IsAuthenticated for validity.
func (s *Store) Credential() (domain.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return domain.Credential{}, false
	}
	return *s.cred, true
}

// Authorize fails fast with ErrNotAuthenticated when there is no live session.
// An expired session is torn down on the way.
func (s *Store) Authorize(ctx context.Context) error {
	if s.IsAuthenticated() {
		return nil
	}
	if _, held := s.Credential(); held {
		s.log.Info("session expired")
		s.discard(ctx)
	}
	return ErrNotAuthenticated
}

// HandleRemoteError tears the session down when err shows the remote side
// rejected the token. It reports whether it did so.
func (s *Store) HandleRemoteError(ctx context.Context, err error) bool {
	if !gateway.IsUnauthorized(err) {
		return false
	}
	s.log.Info("remote service rejected session token")
	s.discard(ctx)
	return true
}

func (s *Store) Signup(ctx context.Context, in gateway.SignupInput) (domain.User, error) {
	res, err := s.accounts.Signup(ctx, in)
	if err != nil {
		return domain.User{}, fmt.Errorf("signup: %w", err)
	}
	if err := s.Establish(ctx, res.Token, res.User); err != nil {
		return domain.User{}, err
	}
	return res.User, nil
}

func (s *Store) Login(ctx context.Context, in gateway.LoginInput) (domain.User, error) {
	res, err := s.accounts.Login(ctx, in)
	if err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	if err := s.Establish(ctx, res.Token, res.User); err != nil {
		return domain.User{}, err
	}
	return res.User, nil
}

func (s *Store) Logout(ctx context.Context) error {
	return s.Teardown(ctx)
}
