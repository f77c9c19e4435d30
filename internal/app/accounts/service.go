// Package accounts implements signup and login for the development API.
package accounts

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	clockport "github.com/Overland-East-Bay/ridebook/internal/ports/out/clock"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/userrepo"
)

// MinPasswordLength is the shortest password signup accepts.
const MinPasswordLength = 6

// TokenMinter issues session tokens for authenticated users.
type TokenMinter interface {
	Mint(u domain.User) (token string, expiresAt time.Time, err error)
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

type Service struct {
	repo   userrepo.Repository
	tokens TokenMinter
	clk    clockport.Clock

	newUserID func() domain.UserID

	// BcryptCost is the hashing cost for new passwords.
	BcryptCost int
}

func NewService(repo userrepo.Repository, tokens TokenMinter, clk clockport.Clock) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		clk:    clk,
		newUserID: func() domain.UserID {
			return domain.UserID(uuid.NewString())
		},
		BcryptCost: bcrypt.DefaultCost,
	}
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (AuthResult, error) {
	name := domain.NormalizeHumanName(in.Name)
	email := domain.NormalizeEmail(in.Email)
	if name == "" {
		return AuthResult{}, validationError("Name is required", "name")
	}
	if email == "" {
		return AuthResult{}, validationError("Email is required", "email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthResult{}, validationError("Email is invalid", "email")
	}
	if len(in.Password) < MinPasswordLength {
		return AuthResult{}, validationError("Password must be at least 6 characters", "password")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, emailTaken()
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.BcryptCost)
	if err != nil {
		return AuthResult{}, err
	}
	u := userrepo.User{
		ID:           s.newUserID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.clk.Now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return AuthResult{}, emailTaken()
		}
		return AuthResult{}, err
	}
	return s.issue(toDomain(u))
}

func (s *Service) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return AuthResult{}, invalidCredentials()
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return AuthResult{}, invalidCredentials()
		}
		return AuthResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.Password)); err != nil {
		return AuthResult{}, invalidCredentials()
	}
	return s.issue(toDomain(u))
}

func (s *Service) issue(u domain.User) (AuthResult, error) {
	tok, exp, err := s.tokens.Mint(u)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: tok, ExpiresAt: exp, User: u}, nil
}

func toDomain(u userrepo.User) domain.User {
	return domain.User{ID: u.ID, Name: u.Name, Email: u.Email}
}

func emailTaken() *Error {
	return &Error{Status: 400, Code: "EMAIL_TAKEN", Message: "Email already in use", Details: map[string]any{"email": "already in use"}}
}

func invalidCredentials() *Error {
	return &Error{Status: 401, Code: "INVALID_CREDENTIALS", Message: "Invalid email or password"}
}
