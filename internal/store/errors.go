package store

import "errors"

// Sentinel errors for the KV engine. Handlers (internal/server) translate
// these into RESP error replies; the snapshot codec and facade wrap them
// with additional context via %w.
var (
	// ErrKeyTooLarge is returned when a key exceeds MaxSpanLen.
	ErrKeyTooLarge = errors.New("key too large")
	// ErrValueTooLarge is returned when a STRING/BINARY value exceeds MaxSpanLen.
	ErrValueTooLarge = errors.New("value too large")
	// ErrEmptyKey is returned for a zero-length key, which is never valid.
	ErrEmptyKey = errors.New("key must not be empty")
	// ErrNotFound is returned by Get/TypeOf when the key is absent (Delete
	// reports absence with a false result instead).
	// It is not surfaced as a wire -ERR: GET renders it as a nil bulk reply.
	ErrNotFound = errors.New("key not found")
	// ErrCorruptSnapshot is returned when a decoded snapshot entry carries a
	// tag byte that does not map to a known Kind.
	ErrCorruptSnapshot = errors.New("corrupt snapshot entry")
)
