/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package filestore is a checkpoint.Store over a local directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"chainguard.dev/evalpanel/checkpoint"
)

// Store maps keys to files below a root directory.
type Store struct {
	root string
}

var _ checkpoint.Store = (*Store)(nil)

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root is the directory the store writes to.
func (s *Store) Root() string { return s.root }

// Path resolves key to a file path below the root.
func (s *Store) Path(key string) (string, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("key %q escapes the store root", key)
	}
	return filepath.Join(s.root, rel), nil
}

// Has implements checkpoint.Store.
func (s *Store) Has(_ context.Context, key string) (bool, error) {
	p, err := s.Path(key)
	if err != nil {
		return false, err
	}
	switch _, err := os.Stat(p); {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Get implements checkpoint.Store.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, checkpoint.ErrNotFound
	}
	return b, err
}

// Put implements checkpoint.Store. The value is written to a temporary file
// that is renamed into place, so readers never see a partial write.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	p, err := s.Path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(p)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}
