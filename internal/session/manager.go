// Package session keeps one kmeans.Session per external session id and
// serializes access to each of them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qtccc/qtc-assignment-2/internal/kmeans"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the registry is full and every
	// session is in use.
	ErrTooManySessions = errors.New("too many active sessions")
)

type entry struct {
	mu       sync.Mutex
	sess     *kmeans.Session
	lastUsed time.Time // guarded by Manager.mu
}

// Manager maps session ids to clustering sessions.
type Manager struct {
	mu          sync.Mutex
	entries     map[string]*entry
	ttl         time.Duration
	maxSessions int
	opts        []kmeans.Option
	now         func() time.Time
}

// NewManager builds a Manager. Sessions idle for longer than ttl are dropped
// by Sweep; ttl <= 0 disables expiry. maxSessions <= 0 means unbounded.
// opts are applied to every session the manager creates.
func NewManager(ttl time.Duration, maxSessions int, opts ...kmeans.Option) (*Manager, error) {
	// Surface bad options now rather than on the first request.
	if _, err := kmeans.NewSession(opts...); err != nil {
		return nil, err
	}
	return &Manager{
		entries:     make(map[string]*entry),
		ttl:         ttl,
		maxSessions: maxSessions,
		opts:        opts,
		now:         time.Now,
	}, nil
}

// Do runs fn with exclusive access to the session identified by id and
// returns the id used. When create is set, a missing session is created and
// an empty id is replaced by a fresh one; otherwise a missing session yields
// ErrNotFound.
func (m *Manager) Do(id string, create bool, fn func(*kmeans.Session) error) (string, error) {
	e, id, err := m.acquire(id, create)
	if err != nil {
		return id, err
	}
	defer e.mu.Unlock()
	return id, fn(e.sess)
}

// acquire returns the entry for id with its lock held. The entry can be
// evicted between the lookup and the lock, so the lookup is retried until the
// locked entry is still the registered one.
func (m *Manager) acquire(id string, create bool) (*entry, string, error) {
	for {
		e, resolved, err := m.lookup(id, create)
		if err != nil {
			return nil, resolved, err
		}
		id = resolved

		e.mu.Lock()
		m.mu.Lock()
		current := m.entries[id] == e
		m.mu.Unlock()
		if current {
			return e, id, nil
		}
		e.mu.Unlock()
		slog.Debug("Session replaced while waiting, retrying", "session", id)
	}
}

func (m *Manager) lookup(id string, create bool) (*entry, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		if !create {
			return nil, id, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if id == "" {
			id = uuid.NewString()
		}
		if m.maxSessions > 0 && len(m.entries) >= m.maxSessions && !m.evictOldestLocked() {
			return nil, id, ErrTooManySessions
		}
		sess, err := kmeans.NewSession(m.opts...)
		if err != nil {
			return nil, id, err
		}
		e = &entry{sess: sess}
		m.entries[id] = e
		slog.Debug("Session created", "session", id)
	}
	e.lastUsed = m.now()
	return e, id, nil
}

// evictOldestLocked drops the least recently used idle session.
func (m *Manager) evictOldestLocked() bool {
	var oldestID string
	var oldest *entry
	for id, e := range m.entries {
		if oldest == nil || e.lastUsed.Before(oldest.lastUsed) {
			if !e.mu.TryLock() {
				continue
			}
			if oldest != nil {
				oldest.mu.Unlock()
			}
			oldestID, oldest = id, e
		}
	}
	if oldest == nil {
		return false
	}
	delete(m.entries, oldestID)
	oldest.mu.Unlock()
	slog.Info("Session evicted", "session", oldestID, "reason", "capacity")
	return true
}

// Delete discards a session. It reports whether the session existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	delete(m.entries, id)
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep drops sessions idle since before now-ttl and returns how many went.
// Sessions in use are skipped.
func (m *Manager) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.entries {
		if !e.lastUsed.Before(cutoff) || !e.mu.TryLock() {
			continue
		}
		delete(m.entries, id)
		e.mu.Unlock()
		removed++
	}
	if removed > 0 {
		slog.Info("Expired idle sessions", "count", removed, "remaining", len(m.entries))
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			m.Sweep(t)
		}
	}
}
