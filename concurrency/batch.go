/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result is the settled outcome of one item of a fan-out.
type Result[R any] struct {
	Value R
	Err   error
}

// Map runs fn over every item, admitting items through sem, and waits for all
// of them to settle. Results are returned in item order. A failing item does
// not cancel the others.
func Map[T, R any](ctx context.Context, sem *Semaphore, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	var eg errgroup.Group
	for i, item := range items {
		release, err := sem.Acquire(ctx)
		if err != nil {
			results[i].Err = err
			continue
		}
		eg.Go(func() error {
			defer release()
			results[i].Value, results[i].Err = fn(ctx, item)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}
