// ABOUTME: Badger-backed store for legacy records that migrations skipped or rejected
// ABOUTME: Keys are run id plus a monotonic ULID so entries list in arrival order
package quarantine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/shopmigrate/models"
)

const keyPrefix = "q/"

// Store persists quarantine entries.
type Store struct {
	db      *badger.DB
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open opens (or creates) the store in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil)
	return open(opts)
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open quarantine store: %w", err)
	}
	return &Store{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

// Close releases the store.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) newID(now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(now), s.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Add stores e, assigning its ID and CreatedAt.
func (s *Store) Add(e models.QuarantineEntry) error {
	if e.RunID == "" {
		return fmt.Errorf("quarantine entry needs a run id")
	}

	e.CreatedAt = time.Now().UTC()
	id, err := s.newID(e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to allocate quarantine id: %w", err)
	}
	e.ID = id

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode quarantine entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+e.RunID+"/"+e.ID), data)
	})
}

// List returns entries for runID, or for every run when runID is empty,
// oldest first. limit <= 0 means no limit.
func (s *Store) List(runID string, limit int) ([]models.QuarantineEntry, error) {
	prefix := []byte(keyPrefix)
	if runID != "" {
		prefix = []byte(keyPrefix + runID + "/")
	}

	var entries []models.QuarantineEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e models.QuarantineEntry
				if err := json.Unmarshal(val, &e); err != nil {
					return err
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to decode quarantine entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// keys group by run; ULIDs order across runs
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Count returns how many entries runID has.
func (s *Store) Count(runID string) (int, error) {
	prefix := []byte(keyPrefix + runID + "/")
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Purge deletes every entry of runID.
func (s *Store) Purge(runID string) error {
	if runID == "" {
		return fmt.Errorf("purge needs a run id")
	}
	return s.db.DropPrefix([]byte(keyPrefix + runID + "/"))
}
