// Package paircode tracks the lifetime of self check-in codes. The
// relational store owns which para a code belongs to; Redis only knows
// how long the code stays valid.
package paircode

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "paircode:"

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore wraps an optional redis client. A nil client disables expiry
// tracking: every issued code then lives until the para clears it.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

func (s *Store) Issue(ctx context.Context, code string, paraID int64, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	return s.client.Set(ctx, keyPrefix+code, strconv.FormatInt(paraID, 10), ttl).Err()
}

// Alive reports whether an issued code is still inside its TTL window.
func (s *Store) Alive(ctx context.Context, code string) (bool, error) {
	if !s.Enabled() {
		return true, nil
	}
	err := s.client.Get(ctx, keyPrefix+code).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Revoke(ctx context.Context, code string) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Del(ctx, keyPrefix+code).Err()
}
