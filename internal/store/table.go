// Package store implements the chained hash table and arena-backed typed
// value engine: an arena-backed chain of entries per bucket, hashing
// cached on the entry, and doubling growth at a 0.75 load factor. Keys are
// arbitrary-byte Spans hashed with FNV-1a rather than a generic comparable
// type, and delete/overwrite never reclaims an entry's old arena bytes;
// they are left as garbage until the next Clear, a documented trade-off,
// not a bug.
package store

import (
	"github.com/thebagchi/kvstored/arena"
)

const initialBucketCount = 16

// fnv1a32 hashes b with the standard 32-bit FNV-1a offset basis and prime.
func fnv1a32(b []byte) uint32 {
	const (
		offset = 0x811c9dc5
		prime  = 0x01000193
	)
	h := uint32(offset)
	for _, c := range b {
		h ^= uint32(c)
		h *= prime
	}
	return h
}

// entry is a node in a bucket's hash chain. The key bytes and the value's
// STRING/BINARY payload live in the table's arena; the entry struct header
// itself is also arena-allocated, so a bucket chain is an arena-backed
// linked list of arena-backed payloads throughout.
type entry struct {
	hash uint32
	key  Span
	val  Value
	next *entry
}

// Table is the chained hash table. The bucket array is a plain Go slice,
// not arena memory: Clear zeros the bucket array while explicitly keeping
// the bucket count, which would be impossible if the array itself lived in
// the arena that Clear resets.
type Table struct {
	arena   *arena.Arena
	buckets []*entry
	size    int
}

// NewTable creates a table with the given arena and an initial capacity of
// at least 16 buckets, rounded up to the next power of two
// (B = power_of_two(max(capacity, 16))).
func NewTable(a *arena.Arena, capacity int) *Table {
	b := powerOfTwo(max(capacity, initialBucketCount))
	return &Table{
		arena:   a,
		buckets: make([]*entry, b),
	}
}

func powerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Size returns the number of live entries.
func (t *Table) Size() int { return t.size }

// BucketCount returns B, the current bucket array length.
func (t *Table) BucketCount() int { return len(t.buckets) }

// LoadFactor returns size/B.
func (t *Table) LoadFactor() float64 {
	if len(t.buckets) == 0 {
		return 0
	}
	return float64(t.size) / float64(len(t.buckets))
}

func (t *Table) find(hash uint32, key []byte) (*entry, int) {
	idx := int(hash % uint32(len(t.buckets)))
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.hash == hash && e.key.Len() == len(key) && bytesEqual(e.key.Bytes(), key) {
			return e, idx
		}
	}
	return nil, idx
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Put inserts or overwrites key -> val. On a miss, when the current
// size/B already meets the 0.75 load factor the table doubles B and
// rehashes first, before inserting the new entry; key bytes and any
// STRING/BINARY payload are copied into the arena. Returns false if key or
// the value's payload exceeds MaxSpanLen.
func (t *Table) Put(key []byte, val Value) bool {
	if len(key) == 0 || len(key) > MaxSpanLen {
		return false
	}
	if (val.Kind == KindString || val.Kind == KindBinary) && len(val.Bytes) > MaxSpanLen {
		return false
	}

	hash := fnv1a32(key)
	if e, _ := t.find(hash, key); e != nil {
		e.val = t.copyPayload(val)
		return true
	}

	if float64(t.size)/float64(len(t.buckets)) >= 0.75 {
		t.grow()
	}

	idx := int(hash % uint32(len(t.buckets)))
	keySpan, ok := AllocSpan(t.arena, key)
	if !ok {
		return false
	}
	node := arena.MakeObject[entry](t.arena)
	*node = entry{
		hash: hash,
		key:  keySpan,
		val:  t.copyPayload(val),
		next: t.buckets[idx],
	}
	t.buckets[idx] = node
	t.size++
	return true
}

// copyPayload copies a STRING/BINARY value's bytes into the arena. Scalar
// kinds (NULL/INT64/DOUBLE/BOOL) are returned unchanged — they carry no
// span to copy.
func (t *Table) copyPayload(val Value) Value {
	if val.Kind != KindString && val.Kind != KindBinary {
		return val
	}
	span, ok := AllocSpan(t.arena, val.Bytes)
	if !ok {
		return val
	}
	val.Bytes = span.Bytes()
	return val
}

// Get returns a borrow of the stored value. The borrow (for STRING/BINARY,
// the Bytes slice) is valid only until the next mutating Table operation;
// callers that must outlive that (the KV facade) copy it out before
// releasing their lock.
func (t *Table) Get(key []byte) (Value, bool) {
	hash := fnv1a32(key)
	e, _ := t.find(hash, key)
	if e == nil {
		return Value{}, false
	}
	return e.val, true
}

// Exists reports whether key is present.
func (t *Table) Exists(key []byte) bool {
	_, ok := t.Get(key)
	return ok
}

// TypeOf returns the stored tag, or false if key is absent.
func (t *Table) TypeOf(key []byte) (Kind, bool) {
	v, ok := t.Get(key)
	if !ok {
		return 0, false
	}
	return v.Kind, true
}

// Delete unlinks key's entry. Its arena bytes are not reclaimed: they leak
// until the next Clear, a documented steady-state cost, not a bug.
func (t *Table) Delete(key []byte) bool {
	hash := fnv1a32(key)
	idx := int(hash % uint32(len(t.buckets)))
	var prev *entry
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.hash == hash && bytesEqual(e.key.Bytes(), key) {
			if prev == nil {
				t.buckets[idx] = e.next
			} else {
				prev.next = e.next
			}
			t.size--
			return true
		}
		prev = e
	}
	return false
}

// grow doubles the bucket count and rehashes every chain in place. The
// entries themselves are not copied, only relinked, since rehashing only
// changes which bucket head an entry chains from: growth preserves every
// key and value.
func (t *Table) grow() {
	old := t.buckets
	t.buckets = make([]*entry, len(old)*2)
	for _, head := range old {
		for e := head; e != nil; {
			next := e.next
			idx := int(e.hash % uint32(len(t.buckets)))
			e.next = t.buckets[idx]
			t.buckets[idx] = e
			e = next
		}
	}
}

// Clear resets the arena (bulk-reclaiming every key/value byte), zeros the
// bucket array in place, and resets size to zero. The bucket count is not
// shrunk.
func (t *Table) Clear() {
	t.arena.Reset()
	for i := range t.buckets {
		t.buckets[i] = nil
	}
	t.size = 0
}

// Range visits every live entry in bucket-index order, following each
// chain from its head (new entries are prepended, but grow relinks chains,
// so chain order is not insertion order). The iteration order is undefined
// after any mutation: do not Put/Delete/Clear from within f.
func (t *Table) Range(f func(key []byte, val Value) bool) {
	for _, head := range t.buckets {
		for e := head; e != nil; e = e.next {
			if !f(e.key.Bytes(), e.val) {
				return
			}
		}
	}
}
