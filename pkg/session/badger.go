package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

var keyPrefix = []byte("session/")

// BadgerStore persists session contexts in an embedded Badger database so
// conversational context survives process restarts. Entries carry the
// session TTL; Badger expires them without a sweep of our own.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger database at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening session db at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

func sessionKey(sessionID string) []byte {
	return append(append([]byte{}, keyPrefix...), sessionID...)
}

func (s *BadgerStore) Get(sessionID string) (*Context, error) {
	var sc *Context
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decoded Context
			if err := json.Unmarshal(val, &decoded); err != nil {
				return fmt.Errorf("decoding session %s: %w", sessionID, err)
			}
			sc = &decoded
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", sessionID, err)
	}
	return sc, nil
}

func (s *BadgerStore) Put(sessionID string, sc *Context) error {
	stored := *sc
	stored.UpdatedAt = time.Now()
	encoded, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sessionID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(sessionKey(sessionID), encoded).WithTTL(TTL)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("writing session %s: %w", sessionID, err)
	}
	return nil
}

func (s *BadgerStore) Delete(sessionID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(sessionID))
	})
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	return nil
}

// EvictOlderThan is a no-op hint: entries carry a Badger TTL and expire
// natively.
func (s *BadgerStore) EvictOlderThan(time.Time) error {
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
