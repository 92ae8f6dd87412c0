package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/storefront/internal/storefront/catalog"
	"github.com/abgdnv/storefront/internal/storefront/state"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Manager maps visitor ids to running sessions and evicts idle ones.
type Manager struct {
	cfg         Config
	loader      catalog.Loader
	logger      *slog.Logger
	idleTimeout time.Duration

	intents metric.Int64Counter
	active  metric.Int64UpDownCounter

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates the session registry. meter may come from a noop provider.
func NewManager(cfg Config, loader catalog.Loader, idleTimeout time.Duration, meter metric.Meter, logger *slog.Logger) (*Manager, error) {
	if _, err := state.NewCarousel(cfg.Slides); err != nil {
		return nil, err
	}
	intents, err := meter.Int64Counter("storefront_intents_total",
		metric.WithDescription("Intents applied to visitor sessions, by kind"))
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64UpDownCounter("storefront_active_sessions",
		metric.WithDescription("Visitor sessions currently running"))
	if err != nil {
		return nil, err
	}
	return &Manager{
		cfg:         cfg,
		loader:      loader,
		logger:      logger.With("component", "session_manager"),
		idleTimeout: idleTimeout,
		intents:     intents,
		active:      active,
		sessions:    make(map[string]*Session),
	}, nil
}

// Get returns the running session for id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Acquire returns the session for id. An empty or unknown id, such as one of a torn-down
// session, starts a fresh session under a newly minted id.
// The returned session's id is the one to hand back to the visitor.
func (m *Manager) Acquire(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	id = uuid.NewString()
	s, err := Start(id, m.cfg, m.loader, m.logger, m.record)
	if err != nil {
		return nil, err
	}
	m.sessions[id] = s
	m.active.Add(context.Background(), 1)
	m.logger.Info("session started", "session_id", id)
	return s, nil
}

// Remove tears the session down. It is a no-op for unknown ids.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.Close()
	m.active.Add(context.Background(), -1)
	m.logger.Info("session closed", "session_id", id)
}

// Len reports the number of running sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run evicts sessions idle longer than the idle timeout until ctx is done,
// then closes every remaining session.
func (m *Manager) Run(ctx context.Context) error {
	interval := m.idleTimeout / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return nil
		case now := <-ticker.C:
			m.evictIdle(now)
		}
	}
}

func (m *Manager) evictIdle(now time.Time) {
	var idle []string
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.IdleSince()) > m.idleTimeout {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()
	for _, id := range idle {
		m.Remove(id)
	}
	if len(idle) > 0 {
		m.logger.Debug("evicted idle sessions", "count", len(idle))
	}
}

// CloseAll tears down every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Remove(id)
	}
}

func (m *Manager) record(in state.Intent) {
	m.intents.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", in.Kind())))
}
