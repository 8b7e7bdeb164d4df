/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package concurrency

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Semaphore is a counting admission gate. At most Size holders are active at
// once and waiters are admitted in the order they called Acquire.
type Semaphore struct {
	size int
	w    *semaphore.Weighted
}

// NewSemaphore creates a semaphore admitting n concurrent holders. Values
// below 1 are treated as 1.
func NewSemaphore(n int) *Semaphore {
	if n < 1 {
		n = 1
	}
	return &Semaphore{size: n, w: semaphore.NewWeighted(int64(n))}
}

// Size returns the number of concurrent holders allowed.
func (s *Semaphore) Size() int { return s.size }

// Acquire blocks until a slot is free and returns the function that gives it
// back. There is no built-in timeout; callers that need one bound ctx.
// Calling release more than once is a no-op.
func (s *Semaphore) Acquire(ctx context.Context) (release func(), err error) {
	if err := s.w.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { s.w.Release(1) }) }, nil
}
