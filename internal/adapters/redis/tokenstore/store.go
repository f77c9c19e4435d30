package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Overland-East-Bay/ridebook/internal/ports/out/tokenstore"
)

// Store persists the session token as a single Redis string key.
type Store struct {
	client *redis.Client
	key    string
}

// NewStore wraps an existing client. An empty key selects tokenstore.DefaultKey.
func NewStore(client *redis.Client, key string) *Store {
	if key == "" {
		key = tokenstore.DefaultKey
	}
	return &Store{client: client, key: key}
}

// NewStoreWithURL dials Redis from a redis:// URL.
func NewStoreWithURL(url, key string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewStore(redis.NewClient(opts), key), nil
}

// NewStoreWithAddr dials Redis at host:port.
func NewStoreWithAddr(addr, key string) *Store {
	return NewStore(redis.NewClient(&redis.Options{Addr: addr}), key)
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Load(ctx context.Context) (string, bool, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Save stores the token without expiry; the session decides validity from the token itself.
func (s *Store) Save(ctx context.Context, token string) error {
	if token == "" {
		return tokenstore.ErrEmptyToken
	}
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key, err)
	}
	return nil
}
