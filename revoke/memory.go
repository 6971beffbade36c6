package revoke

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	principalID string
	expiresAt   time.Time
}

// MemoryLedger is an in-process Ledger for tests and single-node deployments.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryLedger returns an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]memoryEntry)}
}

// Revoke implements Ledger.
func (l *MemoryLedger) Revoke(_ context.Context, token, principalID string, expiresAt time.Time) error {
	digest := Digest(token)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[digest]; ok {
		return ErrAlreadyRevoked
	}
	l.entries[digest] = memoryEntry{principalID: principalID, expiresAt: expiresAt}
	return nil
}

// IsRevoked implements Ledger.
func (l *MemoryLedger) IsRevoked(_ context.Context, token string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.entries[Digest(token)]
	return ok, nil
}

// Sweep implements Ledger.
func (l *MemoryLedger) Sweep(_ context.Context, now time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for digest, entry := range l.entries {
		if !entry.expiresAt.After(now) {
			delete(l.entries, digest)
			removed++
		}
	}
	return removed, nil
}

var _ Ledger = (*MemoryLedger)(nil)
