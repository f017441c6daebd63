package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/hearth/internal/logging"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/ports"
	"github.com/google/uuid"
)

// DefaultIdleTTL is how long a conversation may stay untouched before eviction.
const DefaultIdleTTL = 30 * time.Minute

// archiveLockTTL bounds how long a distributed archive lock survives its holder.
const archiveLockTTL = 10 * time.Second

// Factory builds the controller of a new conversation.
type Factory func(sessionID string) *Controller

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager is the registry of live conversations.
// Ended conversations are archived into the transcript store, if one is set.
type Manager struct {
	factory Factory
	archive ports.TranscriptStore
	locker  ports.Locker
	idleTTL time.Duration

	mu       sync.Mutex             // Global lock for the maps
	sessions map[string]*Controller // Live conversations
	locks    map[string]*lockEntry  // Per-session archive locks

	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithArchive sets the store ended conversations are archived into.
func WithArchive(store ports.TranscriptStore) Option {
	return func(m *Manager) {
		m.archive = store
	}
}

// WithLocker adds a distributed lock around archive access.
func WithLocker(locker ports.Locker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithIdleTTL sets the idle time after which a conversation is evicted.
func WithIdleTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.idleTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager building conversations with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory:  factory,
		idleTTL:  DefaultIdleTTL,
		sessions: make(map[string]*Controller),
		locks:    make(map[string]*lockEntry),
		logger:   logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a conversation with a fresh random ID.
func (m *Manager) Create() *Controller {
	c, _ := m.GetOrCreate(uuid.NewString())
	return c
}

// GetOrCreate returns the live conversation for sessionID, creating it if needed.
// The boolean reports whether it was created.
func (m *Manager) GetOrCreate(sessionID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.sessions[sessionID]; ok {
		return c, false
	}
	c := m.factory(sessionID)
	m.sessions[sessionID] = c
	m.logger.Debug("session created", "session_id", sessionID)
	return c, true
}

// Get returns a live conversation or domain.ErrSessionNotFound.
func (m *Manager) Get(sessionID string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return c, nil
}

// List returns the IDs of the live conversations, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live conversations.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// End removes a conversation, archives its transcript and destroys it.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	c, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	return m.retire(ctx, c)
}

func (m *Manager) retire(ctx context.Context, c *Controller) error {
	transcript := c.Transcript()
	c.Destroy()

	if m.archive == nil || len(transcript.Messages) == 0 {
		return nil
	}
	return m.WithLock(ctx, c.ID(), func(ctx context.Context) error {
		if err := m.archive.Save(ctx, c.ID(), transcript); err != nil {
			return fmt.Errorf("failed to archive transcript: %w", err)
		}
		return nil
	})
}

// Evict ends every conversation idle since before now minus the idle TTL.
// It returns the number of evicted conversations.
func (m *Manager) Evict(ctx context.Context, now time.Time) int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.idleTTL)

	m.mu.Lock()
	var idle []*Controller
	for id, c := range m.sessions {
		if c.LastActive().Before(cutoff) {
			idle = append(idle, c)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, c := range idle {
		if err := m.retire(ctx, c); err != nil {
			m.logger.Warn("failed to archive evicted session", "session_id", c.ID(), "err", err)
		}
	}
	if len(idle) > 0 {
		m.logger.Info("evicted idle sessions", "count", len(idle))
	}
	return len(idle)
}

// Run evicts idle conversations on every tick until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			m.Evict(ctx, now)
		}
	}
}

// Shutdown ends every live conversation.
func (m *Manager) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, id := range m.List() {
		if err := m.End(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Transcript loads an archived conversation.
func (m *Manager) Transcript(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	if m.archive == nil {
		return nil, domain.ErrSessionNotFound
	}
	var t *domain.Transcript
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		t, err = m.archive.Load(ctx, sessionID)
		return err
	})
	return t, err
}

// Archive returns the transcript store, or nil.
func (m *Manager) Archive() ports.TranscriptStore {
	return m.archive
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the archive lock for the session.
// With a Locker configured the lock is also taken across instances.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker == nil {
		return fn(ctx)
	}
	unlock, err := m.locker.Lock(ctx, sessionID, archiveLockTTL)
	if err != nil {
		return fmt.Errorf("failed to lock session %s: %w", sessionID, err)
	}
	defer func() {
		if err := unlock(ctx); err != nil {
			m.logger.Warn("failed to release session lock", "session_id", sessionID, "err", err)
		}
	}()
	return fn(ctx)
}
