// Package redistore is the redis durable backend. Entries are stored
// without expiry alongside a content-type field.
package redistore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const ctSuffix = ":ct"

type Store struct {
	addr string
	rdb  *redis.Client
}

func New(addr string) *Store {
	return &Store{addr: addr}
}

func (s *Store) Name() string { return "redis" }

func (s *Store) Init(ctx context.Context) error {
	if s.addr == "" {
		return errors.New("redis address is required")
	}
	rdb := redis.NewClient(&redis.Options{Addr: s.addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping: %w", err)
	}
	s.rdb = rdb
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, string, bool, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("redis GET %q: %w", key, err)
	}
	ct, err := s.rdb.Get(ctx, key+ctSuffix).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, "", false, fmt.Errorf("redis GET %q: %w", key+ctSuffix, err)
	}
	return data, ct, true, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, data, 0)
		p.Set(ctx, key+ctSuffix, contentType, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis SET %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key, key+ctSuffix).Err(); err != nil {
		return fmt.Errorf("redis DEL %q: %w", key, err)
	}
	return nil
}
