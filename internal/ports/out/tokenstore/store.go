package tokenstore

import "context"

// DefaultKey is the fixed name the session token is persisted under.
const DefaultKey = "ridebook.token"

// Store persists the single opaque session token.
//
// Implementations must make Save and Delete durable before returning so the
// session held in memory never diverges from what a restart would restore.
type Store interface {
	// Load returns the persisted token. ok is false when nothing is stored.
	Load(ctx context.Context) (token string, ok bool, err error)
	Save(ctx context.Context, token string) error
	// Delete removes the persisted token. Deleting an absent token is not an error.
	Delete(ctx context.Context) error
}
