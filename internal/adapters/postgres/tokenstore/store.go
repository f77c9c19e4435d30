package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	postgres "github.com/Overland-East-Bay/ridebook/internal/adapters/postgres"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/tokenstore"
)

// Store is a Postgres implementation of tokenstore.Store keeping one row per key.
type Store struct {
	db  postgres.DB
	key string
}

// NewStore returns a store for key. An empty key selects tokenstore.DefaultKey.
func NewStore(db postgres.DB, key string) *Store {
	if key == "" {
		key = tokenstore.DefaultKey
	}
	return &Store{db: db, key: key}
}

func (s *Store) Load(ctx context.Context) (string, bool, error) {
	if s.db == nil {
		return "", false, errors.New("nil postgres pool")
	}
	var token string
	err := s.db.QueryRow(ctx, `SELECT token FROM session_tokens WHERE token_key = $1`, s.key).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load session token: %w", err)
	}
	return token, token != "", nil
}

func (s *Store) Save(ctx context.Context, token string) error {
	if token == "" {
		return tokenstore.ErrEmptyToken
	}
	if s.db == nil {
		return errors.New("nil postgres pool")
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO session_tokens (token_key, token, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (token_key) DO UPDATE SET
			token = EXCLUDED.token,
			updated_at = EXCLUDED.updated_at
	`, s.key, token)
	if err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context) error {
	if s.db == nil {
		return errors.New("nil postgres pool")
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM session_tokens WHERE token_key = $1`, s.key); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}
