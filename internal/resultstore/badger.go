// SPDX-License-Identifier: MIT

package resultstore

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const reportPrefix = "rep:"

// BadgerStore persists reports in an embedded badger database. Expiry uses
// badger's native entry TTL.
type BadgerStore struct {
	db *badger.DB
}

func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Put(_ context.Context, runID string, report []byte, ttl time.Duration) error {
	key := []byte(reportPrefix + runID)
	return s.db.Update(func(txn *badger.Txn) error {
		if ttl > 0 {
			return txn.SetEntry(badger.NewEntry(key, report).WithTTL(ttl))
		}
		return txn.Set(key, report)
	})
}

func (s *BadgerStore) Get(_ context.Context, runID string) ([]byte, error) {
	key := []byte(reportPrefix + runID)
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) Delete(_ context.Context, runID string) error {
	key := []byte(reportPrefix + runID)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (s *BadgerStore) Close() error { return s.db.Close() }

var _ Store = (*BadgerStore)(nil)
