/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package checkpoint persists the units of completed work that let an
// evaluation run resume: the judging plan, each project's judge results and
// each project's report.
//
// Storage is a plain key-value [Store]. The filestore, gcsstore, redisstore
// and memstore subpackages adapt it to a directory, a Cloud Storage bucket, a
// Redis server and memory. [Checkpoints] layers the typed record layout on
// top of any of them.
package checkpoint

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for keys that were never written.
var ErrNotFound = errors.New("checkpoint not found")

// Store is a durable key-value store. Keys are slash-separated relative
// paths such as "checkpoints/_plan.json".
type Store interface {
	Has(ctx context.Context, key string) (bool, error)
	// Get returns ErrNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
