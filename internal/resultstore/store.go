// SPDX-License-Identifier: MIT

// Package resultstore keeps finished report payloads addressable by run id,
// with optional expiry.
package resultstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no report exists for a run id, or when it
// has expired.
var ErrNotFound = errors.New("resultstore: not found")

// Store persists encoded report payloads. A zero ttl stores forever.
type Store interface {
	Put(ctx context.Context, runID string, report []byte, ttl time.Duration) error
	Get(ctx context.Context, runID string) ([]byte, error)
	Delete(ctx context.Context, runID string) error
	Close() error
}

// Open creates a Store for the configured backend. An empty backend falls
// back to memory.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "badger":
		return OpenBadgerStore(path)
	default:
		return nil, fmt.Errorf("unknown result store backend: %s", backend)
	}
}
