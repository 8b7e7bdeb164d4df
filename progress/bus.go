/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package progress carries the progress event stream from the orchestrator
// to any number of subscribers.
//
// Delivery is best effort. Publish never blocks: a subscriber whose buffer is
// full misses the event, so a slow or stuck consumer cannot stall an
// evaluation.
package progress

import (
	"context"
	"sync"
	"sync/atomic"
)

// Publisher accepts events.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// PublisherFunc adapts a function to Publisher. It is called synchronously
// and must not block.
type PublisherFunc func(ctx context.Context, e Event)

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, e Event) { f(ctx, e) }

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) {})

// Bus fans events out to subscriber channels.
type Bus struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	next    uint64
	closed  bool
	dropped atomic.Int64
	onDrop  func()
}

var _ Publisher = (*Bus)(nil)

// NewBus returns an open Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan Event)}
}

// Subscribe returns a channel receiving events published from now on, and a
// cancel func that unsubscribes and closes the channel. Subscribing to a
// closed bus yields a closed channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, max(buffer, 0))

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Attach subscribes handle to the bus on its own goroutine. The returned
// detach func unsubscribes and waits for handle to finish the events already
// buffered.
func (b *Bus) Attach(buffer int, handle func(Event)) (detach func()) {
	ch, cancel := b.Subscribe(buffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch {
			handle(e)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Publish implements Publisher.
func (b *Bus) Publish(_ context.Context, e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
			if b.onDrop != nil {
				b.onDrop()
			}
		}
	}
}

// Dropped counts events lost to full subscriber buffers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel. Later publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
