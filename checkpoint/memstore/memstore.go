/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package memstore is an in-memory checkpoint.Store for tests and dry runs.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"

	"chainguard.dev/evalpanel/checkpoint"
)

// Store keeps values in a map. The zero value is not usable; call New.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ checkpoint.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Has implements checkpoint.Store.
func (s *Store) Has(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok, nil
}

// Get implements checkpoint.Store.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, checkpoint.ErrNotFound
	}
	return slices.Clone(v), nil
}

// Put implements checkpoint.Store.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = slices.Clone(value)
	return nil
}

// Keys lists the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data))
}
