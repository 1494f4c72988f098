// SPDX-License-Identifier: MIT

package resultstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store intended for tests and single-node
// deployments. Expired entries are evicted lazily on access.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data []byte
	exp  time.Time // zero means no expiry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Put(_ context.Context, runID string, report []byte, ttl time.Duration) error {
	buf := make([]byte, len(report))
	copy(buf, report)

	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[runID] = memoryEntry{data: buf, exp: exp}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, runID string) ([]byte, error) {
	now := time.Now()
	m.mu.Lock()
	e, ok := m.entries[runID]
	if ok && !e.exp.IsZero() && now.After(e.exp) {
		delete(m.entries, runID)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, runID string) error {
	m.mu.Lock()
	delete(m.entries, runID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
