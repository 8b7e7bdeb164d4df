/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"chainguard.dev/evalpanel/progress"
	"github.com/chainguard-dev/clog"
	"github.com/gin-gonic/gin"
)

// WebhookPath is the route workers post to.
const WebhookPath = "/webhook/:runId/:taskType/:taskId"

// ProgressMessage is the signed body of a forwarded progress event.
type ProgressMessage struct {
	Type  string         `json:"type"`
	Event progress.Event `json:"event"`
}

type signedNotification struct {
	Notification
	HMAC string `json:"hmac"`
}

type signedProgress struct {
	ProgressMessage
	HMAC string `json:"hmac"`
}

// envelope decodes either body shape.
type envelope struct {
	Type       string          `json:"type"`
	Event      *progress.Event `json:"event"`
	Status     Status          `json:"status"`
	OutputPath string          `json:"outputPath"`
	Error      string          `json:"error"`
	HMAC       string          `json:"hmac"`
}

// Server receives worker notifications and progress events.
type Server struct {
	key      string
	progress progress.Publisher
	engine   *gin.Engine

	mu      sync.Mutex
	pending map[string]chan Notification
}

// NewServer returns a Server verifying bodies with key. Progress events are
// published to pub.
func NewServer(key string, pub progress.Publisher) *Server {
	if pub == nil {
		pub = progress.Discard
	}
	s := &Server{
		key:      key,
		progress: pub,
		engine:   gin.New(),
		pending:  make(map[string]chan Notification),
	}
	s.engine.Use(gin.Recovery())
	s.engine.POST(WebhookPath, s.handle)
	return s
}

// Handler is the webhook HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Serve serves the webhook on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			clog.FromContext(ctx).Warnf("Webhook server shutdown: %v", err)
		}
	}()
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Pending is a registered wait for one task's notification.
type Pending struct {
	s   *Server
	key string
	ch  chan Notification
}

// Expect registers interest in t's notification. Register before the task
// is spawned so an early notification is not lost.
func (s *Server) Expect(t Task) *Pending {
	p := &Pending{s: s, key: t.key(), ch: make(chan Notification, 1)}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[p.key] = p.ch
	return p
}

// Wait blocks until the notification arrives, timeout elapses or ctx is done.
func (p *Pending) Wait(ctx context.Context, timeout time.Duration) (Notification, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case n := <-p.ch:
		return n, nil
	case <-timer.C:
		p.s.forget(p.key)
		return Notification{}, fmt.Errorf("%w for task %s", ErrTaskTimeout, p.key)
	case <-ctx.Done():
		p.s.forget(p.key)
		return Notification{}, ctx.Err()
	}
}

// Wait registers and waits for a task that has already been spawned.
func (s *Server) Wait(ctx context.Context, t Task, timeout time.Duration) (Notification, error) {
	return s.Expect(t).Wait(ctx, timeout)
}

func (s *Server) forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}

func (s *Server) resolve(key string, n Notification) bool {
	s.mu.Lock()
	ch, ok := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()
	if ok {
		ch <- n
	}
	return ok
}

func (s *Server) handle(c *gin.Context) {
	ctx := c.Request.Context()
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid body")
		return
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.String(http.StatusBadRequest, "Invalid JSON")
		return
	}

	if env.Type == "progress" {
		if env.Event == nil {
			c.String(http.StatusBadRequest, "Invalid JSON")
			return
		}
		msg := ProgressMessage{Type: env.Type, Event: *env.Event}
		if !Verify(s.key, msg, env.HMAC) {
			c.String(http.StatusForbidden, "Invalid HMAC")
			return
		}
		s.progress.Publish(ctx, msg.Event)
		c.Status(http.StatusOK)
		return
	}

	n := Notification{Status: env.Status, OutputPath: env.OutputPath, Error: env.Error}
	if !Verify(s.key, n, env.HMAC) {
		c.String(http.StatusForbidden, "Invalid HMAC")
		return
	}
	key := waitKey(c.Param("runId"), TaskType(c.Param("taskType")), c.Param("taskId"))
	if !s.resolve(key, n) {
		clog.FromContext(ctx).With("task", key).Warn("Notification for a task nobody is waiting on")
	}
	c.Status(http.StatusOK)
}
