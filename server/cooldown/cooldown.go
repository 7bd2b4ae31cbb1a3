// Package cooldown throttles repeated actions per player.
package cooldown

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	at    time.Time
	timer stopper
}

type stopper interface {
	Stop() bool
}

// Map stores the time a player last performed an action. Entries remove
// themselves once the cooldown duration has passed. A Map is safe for
// concurrent use.
type Map struct {
	mu      sync.Mutex
	d       time.Duration
	entries map[uuid.UUID]*entry

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) stopper
}

// New returns a Map using d as cooldown duration.
func New(d time.Duration) *Map {
	return &Map{
		d:       d,
		entries: make(map[uuid.UUID]*entry),
		now:     time.Now,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Duration returns the current cooldown duration.
func (m *Map) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d
}

// SetDuration changes the cooldown duration. Entries already present keep the
// expiry timer they were started with, but Remaining uses the new duration.
func (m *Map) SetDuration(d time.Duration) {
	m.mu.Lock()
	m.d = d
	m.mu.Unlock()
}

// Remaining returns the time left before id may act again and true while id is
// cooling down.
func (m *Map) Remaining(id uuid.UUID) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return 0, false
	}
	left := m.d - m.now().Sub(e.at)
	if left <= 0 {
		return 0, false
	}
	return left, true
}

// Ready reports whether id is not cooling down.
func (m *Map) Ready(id uuid.UUID) bool {
	_, cooling := m.Remaining(id)
	return !cooling
}

// Start records that id acted now and schedules the removal of the entry
// after the cooldown duration. A pending removal for id is replaced.
func (m *Map) Start(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.entries[id]; ok && old.timer != nil {
		old.timer.Stop()
	}
	e := &entry{at: m.now()}
	m.entries[id] = e
	if m.d <= 0 {
		delete(m.entries, id)
		return
	}
	e.timer = m.afterFunc(m.d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		// A newer Start replaced the entry: leave it in place.
		if m.entries[id] == e {
			delete(m.entries, id)
		}
	})
}

// Len returns the number of players with an entry.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Clear removes all entries and stops their timers.
func (m *Map) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(m.entries, id)
	}
}

// WaitSeconds converts a remaining duration into the whole number of seconds
// shown to players: the truncated seconds plus one.
func WaitSeconds(remaining time.Duration) int {
	return int(remaining/time.Second) + 1
}
