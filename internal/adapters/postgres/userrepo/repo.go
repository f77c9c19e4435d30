package userrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/Overland-East-Bay/ridebook/internal/adapters/postgres"
	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/userrepo"
)

// Repo is a Postgres implementation of userrepo.Repository.
type Repo struct {
	db postgres.DB
}

func NewRepo(db postgres.DB) *Repo {
	return &Repo{db: db}
}

const selectUser = `SELECT id::text, name, email, password_hash, created_at FROM users`

func (r *Repo) Create(ctx context.Context, u userrepo.User) error {
	if r.db == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(u.ID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		id,
		u.Name,
		domain.NormalizeEmail(u.Email),
		u.PasswordHash,
		u.CreatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			if pe.ConstraintName == "users_email_unique" {
				return userrepo.ErrEmailTaken
			}
		}
		return err
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (userrepo.User, error) {
	if r.db == nil {
		return userrepo.User{}, errors.New("nil postgres pool")
	}
	return scanUser(r.db.QueryRow(ctx, selectUser+` WHERE email = $1`, domain.NormalizeEmail(email)))
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	if r.db == nil {
		return userrepo.User{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return scanUser(r.db.QueryRow(ctx, selectUser+` WHERE id = $1`, uid))
}

func scanUser(row pgx.Row) (userrepo.User, error) {
	var (
		u  userrepo.User
		id string
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userrepo.User{}, userrepo.ErrNotFound
		}
		return userrepo.User{}, err
	}
	u.ID = domain.UserID(id)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}
