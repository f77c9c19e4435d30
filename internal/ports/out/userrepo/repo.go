package userrepo

import (
	"context"
	"time"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
)

// User is the persistence shape of an account on the development API.
type User struct {
	ID           domain.UserID
	Name         string
	Email        string // normalized; unique
	PasswordHash []byte

	CreatedAt time.Time
}

// Repository stores accounts.
type Repository interface {
	Create(ctx context.Context, u User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id domain.UserID) (User, error)
}
