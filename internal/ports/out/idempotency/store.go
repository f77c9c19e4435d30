package idempotency

import (
	"context"
	"time"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
)

// Header is the request header carrying the caller-provided key.
const Header = "Idempotency-Key"

// Key is the caller-provided idempotency key.
type Key string

// Fingerprint identifies one logical booking attempt.
//
// Two submissions share a fingerprint when the same subject replays the same key
// against the same route with an identical body.
type Fingerprint struct {
	Key      Key
	Subject  domain.SubjectID
	Route    string // e.g. "POST /api/rides/book"
	BodyHash string
}

// Record is the stored response replayed for a duplicate submission.
type Record struct {
	StatusCode int
	Body       []byte
	CreatedAt  time.Time
}

// Store persists idempotency records.
type Store interface {
	// Get returns the record for fp if one was stored at or after notBefore.
	Get(ctx context.Context, fp Fingerprint, notBefore time.Time) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
