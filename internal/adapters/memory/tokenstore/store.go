package tokenstore

import (
	"context"
	"sync"

	"github.com/Overland-East-Bay/ridebook/internal/ports/out/tokenstore"
)

// Store is an in-memory implementation of tokenstore.Store.
// It is safe for concurrent use. Tokens do not survive the process.
type Store struct {
	mu    sync.RWMutex
	token string
	set   bool

	// FailSave and FailDelete, when non-nil, are returned by the matching call
	// without touching state.
	FailSave   error
	FailDelete error
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Load(ctx context.Context) (string, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set, nil
}

func (s *Store) Save(ctx context.Context, token string) error {
	_ = ctx
	if token == "" {
		return tokenstore.ErrEmptyToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	s.token, s.set = token, true
	return nil
}

func (s *Store) Delete(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete != nil {
		return s.FailDelete
	}
	s.token, s.set = "", false
	return nil
}
