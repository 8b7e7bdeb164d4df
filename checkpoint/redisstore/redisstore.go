/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package redisstore is a checkpoint.Store over Redis strings.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/evalpanel/checkpoint"
	"github.com/redis/go-redis/v9"
)

// Store maps keys to Redis keys below a prefix.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ checkpoint.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTTL expires checkpoints after d. Zero, the default, keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// New returns a Store over client. Keys are stored as <prefix>:<key>.
func New(client redis.UniversalClient, prefix string, opts ...Option) *Store {
	s := &Store{client: client, prefix: prefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial connects to the Redis server at addr and checks it answers.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisKey is the Redis key a checkpoint key is stored under.
func (s *Store) RedisKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Has implements checkpoint.Store.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.RedisKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get implements checkpoint.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.RedisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, checkpoint.ErrNotFound
	}
	return b, err
}

// Put implements checkpoint.Store.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.RedisKey(key), value, s.ttl).Err()
}
