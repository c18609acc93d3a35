// Package lockoutpkg tracks failed login attempts and locks usernames that exceed the limit.
package lockoutpkg

import (
	"context"
	"sync"
	"time"
)

// Tracker records failed logins per username.
type Tracker interface {
	// LockedFor returns how long the username stays locked, zero if it is not locked.
	LockedFor(ctx context.Context, username string) (time.Duration, error)
	// RecordFailure counts a failed attempt and reports whether it locked the username.
	RecordFailure(ctx context.Context, username string) (bool, error)
	// Reset forgets failed attempts after a successful login.
	Reset(ctx context.Context, username string) error
}

type entry struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

// Memory is an in-process Tracker. Expired entries are dropped by Sweep.
type Memory struct {
	mu          sync.Mutex
	entries     map[string]*entry
	maxAttempts int
	duration    time.Duration
	now         func() time.Time
}

// NewMemory returns Memory tracker locking a username for duration after maxAttempts failures.
func NewMemory(maxAttempts int, duration time.Duration) *Memory {
	return &Memory{
		entries:     make(map[string]*entry),
		maxAttempts: maxAttempts,
		duration:    duration,
		now:         time.Now,
	}
}

// LockedFor returns how long the username stays locked.
func (m *Memory) LockedFor(_ context.Context, username string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[username]
	if !ok {
		return 0, nil
	}

	if left := e.lockedUntil.Sub(m.now()); left > 0 {
		return left, nil
	}

	return 0, nil
}

// RecordFailure counts a failed attempt.
func (m *Memory) RecordFailure(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	e, ok := m.entries[username]
	if !ok || now.Sub(e.lastFailure) > m.duration {
		e = &entry{}
		m.entries[username] = e
	}

	e.failures++
	e.lastFailure = now

	if e.failures >= m.maxAttempts {
		e.failures = 0
		e.lockedUntil = now.Add(m.duration)

		return true, nil
	}

	return false, nil
}

// Reset forgets failed attempts of the username.
func (m *Memory) Reset(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, username)

	return nil
}

// Sweep removes entries whose lock expired and whose failure window passed.
// It returns the number of removed entries.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0

	for username, e := range m.entries {
		if now.After(e.lockedUntil) && now.Sub(e.lastFailure) > m.duration {
			delete(m.entries, username)
			removed++
		}
	}

	return removed
}

// Run sweeps expired entries every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
