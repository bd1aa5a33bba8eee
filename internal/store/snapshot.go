// Save/Load bridge the facade to internal/snapshot. The codec package
// cannot import store (store already imports snapshot), so the mapping
// between Value/Kind and snapshot.Entry/Tag lives here instead.
package store

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/thebagchi/kvstored/internal/snapshot"
)

// Save writes every live key/value pair to path as a versioned snapshot,
// via a tempfile-then-rename so a crash mid-write never leaves a partial
// file at path.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	entries := make([]snapshot.Entry, 0, s.table.Size())
	s.table.Range(func(key []byte, v Value) bool {
		entries = append(entries, toEntry(key, v))
		return true
	})
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := snapshot.Encode(&buf, entries); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}

// Load replaces the store's entire contents with the snapshot at path. A
// missing file is a deliberate bootstrapping convenience: it silently
// succeeds without touching the store. On any other error the store is left
// untouched: a load either fully replaces the working set or leaves it
// unchanged, never half-loaded.
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening snapshot %s: %w", path, err)
	}
	defer f.Close()

	entries, err := snapshot.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding snapshot %s: %w", path, err)
	}

	values := make([]Value, len(entries))
	for i, e := range entries {
		v, err := fromEntry(e)
		if err != nil {
			return err
		}
		if len(e.Key) == 0 {
			return fmt.Errorf("replaying snapshot %s: %w", path, ErrEmptyKey)
		}
		values[i] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.table.Clear()
	for i, e := range entries {
		if !s.table.Put(e.Key, values[i]) {
			return fmt.Errorf("replaying snapshot %s: %w", path, ErrValueTooLarge)
		}
	}
	s.recordKeysLocked()
	return nil
}

func (s *Store) recordKeysLocked() {
	if s.metrics != nil {
		s.metrics.Keys.Set(float64(s.table.Size()))
	}
}

func toEntry(key []byte, v Value) snapshot.Entry {
	e := snapshot.Entry{Key: key, Tag: snapshot.Tag(v.Kind), I64: v.I64, F64: v.F64, Bool: v.Bool}
	if v.Kind == KindString || v.Kind == KindBinary {
		e.Bytes = v.Bytes
	}
	return e
}

func fromEntry(e snapshot.Entry) (Value, error) {
	switch Kind(e.Tag) {
	case KindNull:
		return NullValue(), nil
	case KindString:
		return StringValue(e.Bytes), nil
	case KindInt64:
		return Int64Value(e.I64), nil
	case KindDouble:
		return DoubleValue(e.F64), nil
	case KindBool:
		return BoolValue(e.Bool), nil
	case KindBinary:
		return BinaryValue(e.Bytes), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown tag %d", ErrCorruptSnapshot, e.Tag)
	}
}
