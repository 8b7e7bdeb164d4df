/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package gcsstore is a checkpoint.Store over a Cloud Storage bucket.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"chainguard.dev/evalpanel/checkpoint"
	"cloud.google.com/go/storage"
)

// Store maps keys to objects below a prefix of one bucket.
type Store struct {
	bucket *storage.BucketHandle
	prefix string
}

var _ checkpoint.Store = (*Store)(nil)

// New returns a Store writing objects named <prefix>/<key> to bucket.
func New(client *storage.Client, bucket, prefix string) *Store {
	return &Store{bucket: client.Bucket(bucket), prefix: prefix}
}

// ObjectName is the object a key is stored in.
func (s *Store) ObjectName(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Has implements checkpoint.Store.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.bucket.Object(s.ObjectName(key)).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", s.ObjectName(key), err)
	}
}

// Get implements checkpoint.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(s.ObjectName(key)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, checkpoint.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.ObjectName(key), err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Put implements checkpoint.Store. The object only becomes visible once the
// upload completes.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	w := s.bucket.Object(s.ObjectName(key)).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(value); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", s.ObjectName(key), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.ObjectName(key), err)
	}
	return nil
}
