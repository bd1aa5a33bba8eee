// Package store's Store type is the KV facade: a process-wide shared Table
// guarded by a single mutex. Every public method acquires the mutex,
// performs exactly one Table operation, and releases it; read-only methods
// copy borrowed bytes out before unlocking so callers never hold a pointer
// into arena memory past the critical section.
package store

import (
	"sync"

	"github.com/thebagchi/kvstored/arena"
	"github.com/thebagchi/kvstored/internal/metrics"
)

// DefaultMaxLoadFactor is the 0.75 growth trigger; it is recorded on the
// Store only for Stats() to report.
const DefaultMaxLoadFactor = 0.75

// Store is the thread-safe facade over the Table and the arena backing it.
type Store struct {
	mu            sync.Mutex
	table         *Table
	arena         *arena.Arena
	maxLoadFactor float64
	metrics       *metrics.Metrics
}

// New creates a Store with the given initial bucket capacity. m may be nil
// (metrics are best-effort; a nil Metrics simply means nothing is
// recorded).
func New(capacity int, m *metrics.Metrics) *Store {
	a := arena.NewBlockSize(arena.DefaultBlockSize)
	s := &Store{
		table:         NewTable(a, capacity),
		arena:         a,
		maxLoadFactor: DefaultMaxLoadFactor,
		metrics:       m,
	}
	return s
}

// Put stores key -> val, validating size ceilings first: keys and
// STRING/BINARY values are capped at MaxSpanLen.
func (s *Store) Put(key []byte, val Value) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if len(key) > MaxSpanLen {
		return ErrKeyTooLarge
	}
	if (val.Kind == KindString || val.Kind == KindBinary) && len(val.Bytes) > MaxSpanLen {
		return ErrValueTooLarge
	}

	s.mu.Lock()
	ok := s.table.Put(key, val)
	size := s.table.Size()
	s.mu.Unlock()

	if !ok {
		return ErrValueTooLarge
	}
	s.recordKeys(size)
	return nil
}

// Get returns a caller-owned copy of the stored value, materialized while
// the lock is held so the returned Bytes slice outlives the critical
// section.
func (s *Store) Get(key []byte) (Value, error) {
	s.mu.Lock()
	v, ok := s.table.Get(key)
	if ok {
		v = materialize(v)
	}
	s.mu.Unlock()

	if !ok {
		return Value{}, ErrNotFound
	}
	return v, nil
}

// Exists reports whether key is present.
func (s *Store) Exists(key []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Exists(key)
}

// TypeOf returns the stored tag for key.
func (s *Store) TypeOf(key []byte) (Kind, error) {
	s.mu.Lock()
	k, ok := s.table.TypeOf(key)
	s.mu.Unlock()
	if !ok {
		return 0, ErrNotFound
	}
	return k, nil
}

// Delete removes key, reporting whether it was present.
func (s *Store) Delete(key []byte) bool {
	s.mu.Lock()
	removed := s.table.Delete(key)
	size := s.table.Size()
	s.mu.Unlock()
	if removed {
		s.recordKeys(size)
	}
	return removed
}

// Clear empties the store and bulk-reclaims the arena.
func (s *Store) Clear() {
	s.mu.Lock()
	s.table.Clear()
	s.mu.Unlock()
	s.recordKeys(0)
}

// Size returns the current key count.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Size()
}

// Keys returns a caller-owned snapshot of every stored key, in the table's
// current iteration order. Callers must not assume any particular
// ordering.
func (s *Store) Keys() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([][]byte, 0, s.table.Size())
	s.table.Range(func(key []byte, _ Value) bool {
		cp := make([]byte, len(key))
		copy(cp, key)
		keys = append(keys, cp)
		return true
	})
	return keys
}

// Stats is the snapshot returned by the STATS command.
type Stats struct {
	Keys          int
	Buckets       int
	LoadFactor    float64
	MaxLoadFactor float64
}

// Stats returns a point-in-time snapshot of size/capacity/load.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Keys:          s.table.Size(),
		Buckets:       s.table.BucketCount(),
		LoadFactor:    s.table.LoadFactor(),
		MaxLoadFactor: s.maxLoadFactor,
	}
}

func (s *Store) recordKeys(n int) {
	if s.metrics != nil {
		s.metrics.Keys.Set(float64(n))
	}
}

// materialize copies a borrowed STRING/BINARY payload so it outlives the
// Store's critical section. Scalar kinds need no copy.
func materialize(v Value) Value {
	if v.Kind != KindString && v.Kind != KindBinary {
		return v
	}
	cp := make([]byte, len(v.Bytes))
	copy(cp, v.Bytes)
	v.Bytes = cp
	return v
}
