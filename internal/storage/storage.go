// Package storage provides persistent, cross-process storage for the
// engine's learned position corrections via an embedded BadgerDB instance.
package storage

import (
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"
)

// LearnedEntry is a single persisted correction-history record for one
// Zobrist-hashed position: the running correction value plus how many
// times search has updated it, used to weight the value's confidence
// when it is reloaded into a fresh in-memory CorrectionHistory table.
type LearnedEntry struct {
	Correction int16
	Visits     uint32
}

// Store wraps an embedded BadgerDB instance holding learned position
// corrections keyed by Zobrist hash, so the engine's evaluation
// corrections survive process restarts instead of resetting on every
// "ucinewgame".
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the learned-position database at
// the platform data directory returned by GetDatabaseDir.
func Open() (*Store, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// OpenAt opens the database at an explicit directory, used by tests.
func OpenAt(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func encodeLearned(e LearnedEntry) []byte {
	buf := make([]byte, 6)
	binary.BigEndian.PutUint16(buf[0:2], uint16(e.Correction))
	binary.BigEndian.PutUint32(buf[2:6], e.Visits)
	return buf
}

func decodeLearned(buf []byte) LearnedEntry {
	if len(buf) < 6 {
		return LearnedEntry{}
	}
	return LearnedEntry{
		Correction: int16(binary.BigEndian.Uint16(buf[0:2])),
		Visits:     binary.BigEndian.Uint32(buf[2:6]),
	}
}

func hashKey(hash uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, hash)
	return buf
}

// Get looks up the learned correction for a Zobrist hash.
func (s *Store) Get(hash uint64) (LearnedEntry, bool) {
	var entry LearnedEntry
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(hashKey(hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			entry = decodeLearned(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return LearnedEntry{}, false
	}
	return entry, found
}

// Put persists the learned correction for a Zobrist hash.
func (s *Store) Put(hash uint64, entry LearnedEntry) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(hashKey(hash), encodeLearned(entry))
	})
}

// PutBatch persists many entries in a single transaction, used when the
// engine flushes its in-memory correction table to disk on quit.
func (s *Store) PutBatch(entries map[uint64]LearnedEntry) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for hash, entry := range entries {
		if err := wb.Set(hashKey(hash), encodeLearned(entry)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// ForEach iterates every persisted entry, used to seed a fresh
// CorrectionHistory table at startup.
func (s *Store) ForEach(fn func(hash uint64, entry LearnedEntry)) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.Key()
			if len(key) != 8 {
				continue
			}
			hash := binary.BigEndian.Uint64(key)
			err := item.Value(func(val []byte) error {
				fn(hash, decodeLearned(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
