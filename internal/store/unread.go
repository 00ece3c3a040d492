package store

import (
	"sync"

	"github.com/vedran77/parley/internal/domain"
)

// UnreadTracker is the process-wide "has unread" map, shared by the chat list
// and any open detail view. A key is present only while unread; clearing
// deletes it, so "anything unread" stays a plain existence check.
type UnreadTracker struct {
	mu      sync.RWMutex
	enabled bool
	flags   map[domain.Key]struct{}
}

func NewUnreadTracker() *UnreadTracker {
	return &UnreadTracker{
		enabled: true,
		flags:   make(map[domain.Key]struct{}),
	}
}

// MarkUnread sets the flag for a conversation. A no-op while notifications
// are disabled; flags set before disabling are left untouched.
func (t *UnreadTracker) MarkUnread(key domain.Key) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return
	}
	t.flags[key] = struct{}{}
}

// Restore re-sets a flag regardless of the notification toggle. Used to roll
// back an optimistic clear whose server confirmation failed.
func (t *UnreadTracker) Restore(key domain.Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flags[key] = struct{}{}
}

// ClearUnread removes the flag. Idempotent.
func (t *UnreadTracker) ClearUnread(key domain.Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.flags, key)
}

func (t *UnreadTracker) IsUnread(key domain.Key) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.flags[key]
	return ok
}

// Snapshot returns the currently flagged conversation keys.
func (t *UnreadTracker) Snapshot() []domain.Key {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]domain.Key, 0, len(t.flags))
	for k := range t.flags {
		keys = append(keys, k)
	}
	return keys
}

// SetEnabled flips the notification toggle. Disabling does not clear existing
// flags; re-enabling does not recreate ones missed while disabled.
func (t *UnreadTracker) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

func (t *UnreadTracker) Enabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
