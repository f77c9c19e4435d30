package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	postgres "github.com/Overland-East-Bay/ridebook/internal/adapters/postgres"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/idempotency"
)

// Store is a Postgres implementation of idempotency.Store.
type Store struct {
	db postgres.DB
}

func NewStore(db postgres.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint, notBefore time.Time) (idempotency.Record, bool, error) {
	if s.db == nil {
		return idempotency.Record{}, false, errors.New("nil postgres pool")
	}
	row := s.db.QueryRow(ctx, `
		SELECT status_code, body, created_at
		FROM idempotency_keys
		WHERE idempotency_key = $1
		  AND subject = $2
		  AND route = $3
		  AND body_hash = $4
		  AND created_at >= $5
	`,
		string(fp.Key),
		string(fp.Subject),
		fp.Route,
		fp.BodyHash,
		notBefore.UTC(),
	)
	var rec idempotency.Record
	if err := row.Scan(&rec.StatusCode, &rec.Body, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return idempotency.Record{}, false, nil
		}
		return idempotency.Record{}, false, fmt.Errorf("get idempotency record: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.db == nil {
		return errors.New("nil postgres pool")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO idempotency_keys (
			idempotency_key,
			subject,
			route,
			body_hash,
			status_code,
			body,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (idempotency_key, subject, route, body_hash)
		DO UPDATE SET
			status_code = EXCLUDED.status_code,
			body = EXCLUDED.body,
			created_at = EXCLUDED.created_at
	`,
		string(fp.Key),
		string(fp.Subject),
		fp.Route,
		fp.BodyHash,
		rec.StatusCode,
		rec.Body,
		createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put idempotency record: %w", err)
	}
	return nil
}
