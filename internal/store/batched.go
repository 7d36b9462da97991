package store

import "sync"

// DataStore is the cache surface the analyzer uses. Both *Store and
// *BatchedStore satisfy it.
type DataStore interface {
	Lookup(path, hash, kind string) ([]byte, error)
	Save(e Entry) error
}

var (
	_ DataStore = (*Store)(nil)
	_ DataStore = (*BatchedStore)(nil)
)

type pendingKey struct {
	path string
	kind string
}

// BatchedStore buffers writes in memory so parallel workers can share one
// cache without contending on SQLite. Reads see buffered entries before
// falling through to the database. Flush commits the buffer in a single
// transaction.
type BatchedStore struct {
	db *Store

	mu      sync.Mutex
	pending map[pendingKey]int
	entries []Entry
}

// NewBatchedStore creates an empty buffer in front of db.
func NewBatchedStore(db *Store) *BatchedStore {
	return &BatchedStore{db: db, pending: make(map[pendingKey]int)}
}

func (b *BatchedStore) Lookup(path, hash, kind string) ([]byte, error) {
	b.mu.Lock()
	if i, ok := b.pending[pendingKey{path, kind}]; ok {
		e := b.entries[i]
		b.mu.Unlock()
		if e.File.Hash == hash {
			return e.Data, nil
		}
		return nil, nil
	}
	b.mu.Unlock()
	return b.db.Lookup(path, hash, kind)
}

// Save buffers e, replacing an earlier entry for the same path and kind.
func (b *BatchedStore) Save(e Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := pendingKey{e.File.Path, e.Kind}
	if i, ok := b.pending[k]; ok {
		b.entries[i] = e
		return nil
	}
	b.pending[k] = len(b.entries)
	b.entries = append(b.entries, e)
	return nil
}

// Pending returns the number of buffered entries.
func (b *BatchedStore) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Flush writes buffered entries and clears the buffer. On error the buffer
// is left intact.
func (b *BatchedStore) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.db.SaveAll(b.entries); err != nil {
		return err
	}
	b.entries = nil
	b.pending = make(map[pendingKey]int)
	return nil
}
