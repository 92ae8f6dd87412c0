// Package session runs one event loop per visitor. The loop is the only writer of
// the visitor's state: intents, timer ticks and the catalog result are applied one
// at a time, each to completion.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/abgdnv/storefront/internal/storefront/catalog"
	"github.com/abgdnv/storefront/internal/storefront/state"
	"github.com/abgdnv/storefront/pkg/logger"
)

// ErrClosed is returned by Dispatch after the session was torn down.
var ErrClosed = errors.New("session closed")

type Config struct {
	Slides           int
	CarouselInterval time.Duration
	ResetOnNavigate  bool
	NewsletterDelay  time.Duration
}

type request struct {
	intent state.Intent
	reply  chan state.State
}

type loadResult struct {
	products []state.Product
	err      error
}

// Session owns a visitor's state and the timers acting on it.
type Session struct {
	id       string
	cfg      Config
	loader   catalog.Loader
	logger   *slog.Logger
	onApply  func(state.Intent)
	requests chan request
	current  atomic.Pointer[state.State]
	lastSeen atomic.Int64
	cancel   context.CancelFunc
	done     chan struct{}
}

// Start creates the session state and launches its loop and catalog load.
// It fails with state.ErrNoSlides when cfg.Slides < 1.
func Start(id string, cfg Config, loader catalog.Loader, log *slog.Logger, onApply func(state.Intent)) (*Session, error) {
	initial, err := state.New(cfg.Slides)
	if err != nil {
		return nil, err
	}
	if cfg.CarouselInterval <= 0 || cfg.NewsletterDelay <= 0 {
		return nil, fmt.Errorf("session timers must be positive: carousel %s, newsletter %s", cfg.CarouselInterval, cfg.NewsletterDelay)
	}
	if onApply == nil {
		onApply = func(state.Intent) {}
	}
	ctx, cancel := context.WithCancel(logger.WithSessionID(context.Background(), id))
	s := &Session{
		id:       id,
		cfg:      cfg,
		loader:   loader,
		logger:   log.With("component", "session"),
		onApply:  onApply,
		requests: make(chan request),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.current.Store(&initial)
	s.touch()
	go s.loop(ctx, initial)
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Snapshot returns the latest state published by the loop.
func (s *Session) Snapshot() state.State {
	s.touch()
	return *s.current.Load()
}

// Dispatch hands in to the loop and returns the state after it was applied.
func (s *Session) Dispatch(ctx context.Context, in state.Intent) (state.State, error) {
	s.touch()
	req := request{intent: in, reply: make(chan state.State, 1)}
	select {
	case s.requests <- req:
	case <-s.done:
		return state.State{}, ErrClosed
	case <-ctx.Done():
		return state.State{}, ctx.Err()
	}
	select {
	case st := <-req.reply:
		return st, nil
	case <-s.done:
		return state.State{}, ErrClosed
	}
}

// Close stops the loop and returns once its timers are released. A catalog
// load still in flight is cancelled and its result discarded.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}

// Done is closed when the loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// IdleSince reports the last time the visitor touched the session.
func (s *Session) IdleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Session) loop(ctx context.Context, st state.State) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.CarouselInterval)
	defer ticker.Stop()
	newsletter := time.NewTimer(s.cfg.NewsletterDelay)
	defer newsletter.Stop()

	loaded := make(chan loadResult, 1)
	go func() {
		products, err := s.loader.Load(ctx)
		loaded <- loadResult{products: products, err: err}
	}()

	apply := func(in state.Intent) {
		st = state.Reduce(st, in)
		snapshot := st
		s.current.Store(&snapshot)
		s.onApply(in)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.DebugContext(ctx, "session loop stopped")
			return
		case req := <-s.requests:
			apply(req.intent)
			if s.cfg.ResetOnNavigate && state.IsNavigation(req.intent) {
				ticker.Reset(s.cfg.CarouselInterval)
			}
			if in, ok := req.intent.(state.Search); ok {
				s.logger.InfoContext(ctx, "Searching for:", "query", in.Query)
			}
			if in, ok := req.intent.(state.DismissNewsletter); ok && in.Email != "" {
				s.logger.InfoContext(ctx, "newsletter subscription", "email", in.Email)
			}
			req.reply <- st
		case <-ticker.C:
			apply(state.AutoAdvance{})
		case <-newsletter.C:
			apply(state.ShowNewsletter{})
		case res := <-loaded:
			loaded = nil
			if ctx.Err() != nil {
				return
			}
			if res.err != nil {
				s.logger.ErrorContext(ctx, "catalog load failed", "error", res.err)
				apply(state.CatalogFailed{Err: res.err})
				continue
			}
			s.logger.InfoContext(ctx, "catalog ready", "count", len(res.products))
			apply(state.CatalogLoaded{Products: res.products})
		}
	}
}
