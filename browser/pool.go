/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package browser

import (
	"context"
	"errors"
	"sync"

	"chainguard.dev/evalpanel/concurrency"
	"github.com/chainguard-dev/clog"
)

// Pool lends at most Size sessions at a time. Released sessions are kept idle
// and handed out again before a new one is opened.
type Pool struct {
	sem     *concurrency.Semaphore
	factory Factory

	mu   sync.Mutex
	idle []Session
	all  []Session
}

// NewPool returns a pool of at most size sessions opened by factory.
func NewPool(size int, factory Factory) *Pool {
	return &Pool{
		sem:     concurrency.NewSemaphore(size),
		factory: factory,
	}
}

// Size is the maximum number of live sessions.
func (p *Pool) Size() int { return p.sem.Size() }

// Live is the number of sessions opened so far and not yet closed.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.all)
}

// Acquire waits for a free slot and returns a session with the func that
// gives it back. The session belongs to the caller until release is called.
func (p *Pool) Acquire(ctx context.Context) (Session, func(), error) {
	semRelease, err := p.sem.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}

	p.mu.Lock()
	var s Session
	if n := len(p.idle); n > 0 {
		s = p.idle[n-1]
		p.idle = p.idle[:n-1]
	}
	p.mu.Unlock()

	if s == nil {
		s, err = p.factory(ctx)
		if err != nil {
			semRelease()
			return nil, nil, err
		}
		p.mu.Lock()
		p.all = append(p.all, s)
		p.mu.Unlock()
	}

	var once sync.Once
	return s, func() {
		once.Do(func() {
			p.mu.Lock()
			p.idle = append(p.idle, s)
			p.mu.Unlock()
			semRelease()
		})
	}, nil
}

// CloseAll closes every session the pool opened, idle or lent. Close
// failures are logged and joined into the returned error; every session is
// attempted.
func (p *Pool) CloseAll(ctx context.Context) error {
	p.mu.Lock()
	sessions := p.all
	p.all, p.idle = nil, nil
	p.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, len(sessions))
	for i, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Close(ctx); err != nil {
				clog.FromContext(ctx).Warnf("Failed to close browser session: %v", err)
				errs[i] = err
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
