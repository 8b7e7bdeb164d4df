/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package httpsession is a browser.Session that fetches pages over plain
// HTTP and reads them with goquery. It does not run scripts, so it sees what
// a crawler sees; "screenshots" are HTML snapshots of the fetched page.
package httpsession

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"chainguard.dev/evalpanel/browser"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	defaultUserAgent = "evalpanel/1.0"
	defaultMaxBody   = 5 << 20
	maxObservations  = 60
	maxParagraphs    = 12
)

// ErrNoPage is returned by page operations before the first Navigate.
var ErrNoPage = errors.New("no page loaded")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("session closed")

// Option configures a Session.
type Option func(*Session)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(s *Session) { s.client = c }
}

// WithLimiter bounds the rate of page fetches.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Session) { s.limiter = l }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Session) { s.userAgent = ua }
}

// WithMaxBodyBytes caps how much of each response is read.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Session) { s.maxBody = n }
}

// Session is a single-page HTTP browsing context.
type Session struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxBody   int64

	mu     sync.Mutex
	page   *url.URL
	raw    []byte
	doc    *goquery.Document
	closed bool
}

var _ browser.Session = (*Session)(nil)

// New returns a session. Without options it uses a 30s client and allows two
// fetches per second.
func New(opts ...Option) *Session {
	s := &Session{
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(2), 4),
		userAgent: defaultUserAgent,
		maxBody:   defaultMaxBody,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Factory returns a browser.Factory opening sessions with opts. Sessions
// share one limiter so a pool as a whole respects the fetch rate.
func Factory(opts ...Option) browser.Factory {
	shared := New(opts...).limiter
	return func(context.Context) (browser.Session, error) {
		return New(append(opts, WithLimiter(shared))...), nil
	}
}

// Navigate implements browser.Session.
func (s *Session) Navigate(ctx context.Context, target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	return s.load(ctx, u)
}

func (s *Session) load(ctx context.Context, u *url.URL) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s returned %s", u, resp.Status)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	// Redirects move the page.
	s.page = resp.Request.URL
	s.raw = raw
	s.doc = doc
	return nil
}

func (s *Session) current() (*goquery.Document, *url.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return nil, nil, ErrClosed
	case s.doc == nil:
		return nil, nil, ErrNoPage
	}
	return s.doc, s.page, nil
}

// Observe implements browser.Session. It lists headings, links, buttons and
// form fields in document order.
func (s *Session) Observe(context.Context) ([]browser.Observation, error) {
	doc, _, err := s.current()
	if err != nil {
		return nil, err
	}
	var out []browser.Observation
	doc.Find("h1, h2, h3, a[href], button, input, textarea, select, img[alt]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if o, ok := observe(sel); ok {
			out = append(out, o)
		}
		return len(out) < maxObservations
	})
	return out, nil
}

func observe(sel *goquery.Selection) (browser.Observation, bool) {
	tag := goquery.NodeName(sel)
	text := clean(sel.Text())
	switch tag {
	case "h1", "h2", "h3":
		if text == "" {
			return browser.Observation{}, false
		}
		return browser.Observation{Description: fmt.Sprintf("Heading (%s): %s", tag, text), Selector: tag}, true
	case "a":
		href, _ := sel.Attr("href")
		if text == "" {
			text, _ = sel.Attr("aria-label")
		}
		if text == "" {
			return browser.Observation{}, false
		}
		return browser.Observation{Description: fmt.Sprintf("Link %q -> %s", text, href), Selector: fmt.Sprintf("a[href=%q]", href)}, true
	case "button":
		if text == "" {
			text, _ = sel.Attr("aria-label")
		}
		return browser.Observation{Description: fmt.Sprintf("Button %q", text), Selector: "button"}, true
	case "img":
		alt, _ := sel.Attr("alt")
		if strings.TrimSpace(alt) == "" {
			return browser.Observation{}, false
		}
		return browser.Observation{Description: fmt.Sprintf("Image: %s", alt), Selector: "img"}, true
	default:
		name, _ := sel.Attr("name")
		typ, _ := sel.Attr("type")
		if typ == "hidden" {
			return browser.Observation{}, false
		}
		label, ok := sel.Attr("placeholder")
		if !ok {
			label = name
		}
		return browser.Observation{Description: fmt.Sprintf("Form field (%s) %q", tag, label), Selector: fmt.Sprintf("%s[name=%q]", tag, name)}, true
	}
}

// Page is what Extract returns.
type Page struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Headings    []string `json:"headings,omitempty"`
	Paragraphs  []string `json:"paragraphs,omitempty"`
	Instruction string   `json:"instruction"`
}

// Extract implements browser.Session. Paragraphs mentioning a word of the
// instruction are preferred; otherwise the first paragraphs are returned.
func (s *Session) Extract(_ context.Context, instruction string) (any, error) {
	doc, page, err := s.current()
	if err != nil {
		return nil, err
	}
	p := Page{
		URL:         page.String(),
		Title:       clean(doc.Find("title").First().Text()),
		Instruction: instruction,
	}
	p.Description, _ = doc.Find(`meta[name="description"]`).Attr("content")
	doc.Find("h1, h2, h3").Each(func(_ int, sel *goquery.Selection) {
		if t := clean(sel.Text()); t != "" {
			p.Headings = append(p.Headings, t)
		}
	})

	var all []string
	doc.Find("p, li").Each(func(_ int, sel *goquery.Selection) {
		if t := clean(sel.Text()); t != "" {
			all = append(all, t)
		}
	})
	words := keywords(instruction)
	for _, para := range all {
		lower := strings.ToLower(para)
		for _, w := range words {
			if strings.Contains(lower, w) {
				p.Paragraphs = append(p.Paragraphs, para)
				break
			}
		}
		if len(p.Paragraphs) == maxParagraphs {
			break
		}
	}
	if len(p.Paragraphs) == 0 {
		p.Paragraphs = all[:min(len(all), maxParagraphs)]
	}
	return p, nil
}

// Act implements browser.Session. The only supported action is following a
// link by its visible text, as in "click Pricing" or "go to the docs link".
func (s *Session) Act(ctx context.Context, instruction string) error {
	doc, page, err := s.current()
	if err != nil {
		return err
	}
	target := actionTarget(instruction)
	if target == "" {
		return fmt.Errorf("unsupported action: %q", instruction)
	}
	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.ToLower(clean(sel.Text()))
		if label, ok := sel.Attr("aria-label"); ok && text == "" {
			text = strings.ToLower(label)
		}
		if text != "" && strings.Contains(text, target) {
			href, _ = sel.Attr("href")
			return false
		}
		return true
	})
	if href == "" {
		return fmt.Errorf("no link matching %q", target)
	}
	next, err := page.Parse(href)
	if err != nil {
		return fmt.Errorf("parse link %q: %w", href, err)
	}
	if next.Scheme != "http" && next.Scheme != "https" {
		return fmt.Errorf("link %q is not http", href)
	}
	return s.load(ctx, next)
}

// Screenshot implements browser.Session by writing the page HTML to
// path.html.
func (s *Session) Screenshot(_ context.Context, path string) (string, error) {
	s.mu.Lock()
	raw, closed := s.raw, s.closed
	s.mu.Unlock()
	switch {
	case closed:
		return "", ErrClosed
	case raw == nil:
		return "", ErrNoPage
	}
	out := path + ".html"
	if err := os.WriteFile(out, raw, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return out, nil
}

// Close implements browser.Session.
func (s *Session) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.doc, s.raw = nil, nil
	return nil
}

var actionVerbs = []string{"click on ", "click ", "follow ", "go to ", "open ", "navigate to ", "press ", "tap "}

func actionTarget(instruction string) string {
	lower := strings.ToLower(strings.TrimSpace(instruction))
	for _, verb := range actionVerbs {
		if rest, ok := strings.CutPrefix(lower, verb); ok {
			rest = strings.TrimPrefix(strings.TrimRight(rest, ".!"), "the ")
			for _, suffix := range []string{" link", " button", " tab"} {
				rest = strings.TrimSuffix(rest, suffix)
			}
			return strings.Trim(rest, `"' .`)
		}
	}
	return ""
}

func keywords(instruction string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(instruction)) {
		w = strings.Trim(w, `.,;:!?"'()`)
		if len(w) > 3 {
			out = append(out, w)
		}
	}
	return out
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
