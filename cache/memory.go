package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	text      string
	expiresAt time.Time
}

// Memory is an in-process SessionCache. Entries expire after the TTL; a zero
// TTL keeps them until deleted.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time

	nextSweep time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, userID int64, sessionID string) (string, bool, error) {
	key := Key(userID, sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return "", false, nil
	}
	return e.text, true, nil
}

func (m *Memory) Set(_ context.Context, userID int64, sessionID, text string) error {
	e := memoryEntry{text: text}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	m.sweep()
	m.entries[Key(userID, sessionID)] = e
	m.mu.Unlock()
	return nil
}

// sweep drops expired entries, at most once per TTL. Callers hold m.mu.
func (m *Memory) sweep() {
	if m.ttl <= 0 {
		return
	}
	now := m.now()
	if now.Before(m.nextSweep) {
		return
	}
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, key)
		}
	}
	m.nextSweep = now.Add(m.ttl)
}

func (m *Memory) Delete(_ context.Context, userID int64, sessionID string) error {
	m.mu.Lock()
	delete(m.entries, Key(userID, sessionID))
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
