// Package session runs a manifest against a headless document and reports
// what happened.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/resload/internal/eventloop"
	"github.com/leapstack-labs/resload/internal/fetch"
	"github.com/leapstack-labs/resload/internal/manifest"
	"github.com/leapstack-labs/resload/pkg/dom/htmldom"
	"github.com/leapstack-labs/resload/pkg/resload"
)

// ErrNotSettled is returned when the context ends before every step ran and
// the network went idle. The partial Result is returned alongside it.
var ErrNotSettled = errors.New("session did not settle")

// StepResult is the outcome of one manifest step, observed once the
// session ended.
type StepResult struct {
	Index     int           `json:"index"`
	Op        manifest.Op   `json:"op"`
	Kind      string        `json:"type"`
	URL       string        `json:"url"`
	Name      string        `json:"name,omitempty"`
	Identity  string        `json:"identity"`
	Ran       bool          `json:"ran"`
	State     resload.State `json:"-"`
	StateName string        `json:"state"`
	Callbacks int           `json:"callbacks"`
}

// Result is everything a session observed.
type Result struct {
	ID        string             `json:"id"`
	Settled   bool               `json:"settled"`
	Elapsed   time.Duration      `json:"elapsed"`
	HTML      string             `json:"html"`
	Steps     []StepResult       `json:"steps"`
	Transfers []htmldom.Transfer `json:"-"`
	Fetch     *fetch.Stats       `json:"fetch,omitempty"`
}

// Session executes one manifest on its own event loop.
type Session struct {
	id       string
	manifest *manifest.Manifest
	dir      string
	fetcher  htmldom.Fetcher
	features map[string]bool
	logger   *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithDir sets the directory the page path is relative to. Without a base
// URL in the manifest, resources are read from it as well.
func WithDir(dir string) Option {
	return func(s *Session) { s.dir = dir }
}

// WithFetcher replaces the fetch client built from the manifest.
func WithFetcher(f htmldom.Fetcher) Option {
	return func(s *Session) { s.fetcher = f }
}

// WithFeature overrides a document feature flag.
func WithFeature(name string, on bool) Option {
	return func(s *Session) { s.features[name] = on }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// New prepares a session for m.
func New(m *manifest.Manifest, opts ...Option) (*Session, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		id:       uuid.NewString(),
		manifest: m,
		features: make(map[string]bool),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetcher == nil {
		var fopts []fetch.Option
		if m.BaseURL != "" {
			fopts = append(fopts, fetch.WithBaseURL(m.BaseURL))
		} else if s.dir != "" {
			fopts = append(fopts, fetch.WithRoot(s.dir))
		}
		fopts = append(fopts, fetch.WithLogger(s.logger))
		c, err := fetch.New(fopts...)
		if err != nil {
			return nil, err
		}
		s.fetcher = c
	}
	s.logger = s.logger.With("session", s.id)
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Run executes the steps in order. A load step with wait holds the rest
// until its callback fires. Run returns when every step ran and no
// transfer or task is outstanding, or when ctx is done.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	page, err := s.page()
	if err != nil {
		return nil, err
	}

	loop := eventloop.New(s.logger)
	dopts := []htmldom.Option{htmldom.WithLogger(s.logger)}
	for name, on := range s.features {
		dopts = append(dopts, htmldom.WithFeature(name, on))
	}
	doc, err := htmldom.Parse(ctx, bytes.NewReader(page), loop, s.fetcher, dopts...)
	if err != nil {
		return nil, err
	}
	loader := resload.New(doc, loop, resload.WithLogger(s.logger))

	steps := s.manifest.Steps
	results := make([]StepResult, len(steps))
	next := 0
	blocked := false

	var advance func()
	advance = func() {
		for next < len(steps) {
			i := next
			next++
			st := steps[i]
			results[i].Ran = true
			s.logger.Debug("running step", "index", i+1, "op", st.Op, "type", st.Type, "url", st.URL)

			kind := resload.Kind(st.Type)
			switch st.Op {
			case manifest.OpLoad:
				waiting := st.Wait
				loader.LoadNamed(kind, st.URL, st.Name, func() {
					results[i].Callbacks++
					if waiting {
						waiting = false
						blocked = false
						advance()
					}
				})
				if waiting {
					blocked = true
					return
				}
			case manifest.OpUnload:
				loader.Unload(kind, st.URL)
			case manifest.OpIgnore:
				loader.Ignore(kind, st.URL)
			case manifest.OpPrefetch:
				loader.Prefetch(kind, st.URL)
			}
		}
	}
	loop.Defer(advance)

	err = loop.RunUntil(ctx, func() bool {
		return next == len(steps) && !blocked && doc.Inflight() == 0 && loop.Len() == 0
	})
	settled := err == nil

	res := &Result{
		ID:        s.id,
		Settled:   settled,
		Elapsed:   time.Since(start),
		HTML:      doc.String(),
		Steps:     results,
		Transfers: doc.Transfers(),
	}
	for i, st := range steps {
		r := &res.Steps[i]
		r.Index = i + 1
		r.Op = st.Op
		r.Kind = st.Type
		r.URL = st.URL
		r.Name = st.Name
		r.Identity, _ = loader.Identity(resload.Kind(st.Type), st.URL)
		r.State = loader.State(resload.Kind(st.Type), st.URL)
		r.StateName = r.State.String()
	}
	if c, ok := s.fetcher.(*fetch.Client); ok {
		stats := c.Stats()
		res.Fetch = &stats
	}

	if !settled {
		s.logger.Warn("session did not settle", "steps_run", next, "inflight", doc.Inflight(), "error", err)
		return res, fmt.Errorf("%w after %d of %d steps: %w", ErrNotSettled, next, len(steps), err)
	}
	s.logger.Info("session settled", "steps", len(steps), "transfers", len(res.Transfers), "elapsed", res.Elapsed)
	return res, nil
}

func (s *Session) page() ([]byte, error) {
	if s.manifest.Page == "" {
		return nil, nil
	}
	path := s.manifest.Page
	if !filepath.IsAbs(path) && s.dir != "" {
		path = filepath.Join(s.dir, path)
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: page path comes from the manifest
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return data, nil
}
