/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checkpoint

import (
	"context"
	"path"
)

// Prefix returns a Store that keeps every key of s below prefix.
func Prefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &prefixed{store: s, prefix: prefix}
}

type prefixed struct {
	store  Store
	prefix string
}

func (p *prefixed) Has(ctx context.Context, key string) (bool, error) {
	return p.store.Has(ctx, path.Join(p.prefix, key))
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.store.Get(ctx, path.Join(p.prefix, key))
}

func (p *prefixed) Put(ctx context.Context, key string, value []byte) error {
	return p.store.Put(ctx, path.Join(p.prefix, key), value)
}
