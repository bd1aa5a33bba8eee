package store

import (
	"unsafe"

	"github.com/thebagchi/kvstored/arena"
)

// MaxSpanLen is the 1 MiB ceiling on both keys and STRING/BINARY values. It
// is shared by the hash table, the command handlers, and the snapshot
// codec so none of them can disagree about the limit.
const MaxSpanLen = 1 << 20

// Span is a length-prefixed, NUL-tolerant byte region: the storage unit for
// keys and STRING/BINARY values. Length is authoritative — callers must
// never treat Bytes() as a C string, even though a convenience NUL byte is
// appended past the end when the backing allocation has room for it.
//
// A Span is a plain value: copying it copies the (data, length) pair, not
// the underlying bytes. Two Spans referencing the same arena allocation are
// interchangeable; a Span never owns its bytes in the sense of needing an
// explicit free — the arena or the Go heap does.
type Span struct {
	data []byte
}

// NewSpan wraps caller-owned bytes directly, with no copy. Used for
// transient spans (e.g. a request line token) that will be copied into an
// arena by the table before anything borrows them past the current command.
func NewSpan(b []byte) (Span, bool) {
	if len(b) > MaxSpanLen {
		return Span{}, false
	}
	return Span{data: b}, true
}

// Len returns the authoritative byte length.
func (s Span) Len() int { return len(s.data) }

// Bytes returns the span's bytes, exactly Len() long.
func (s Span) Bytes() []byte { return s.data }

// IsNil reports whether the span holds no backing slice at all (distinct
// from an empty-but-present span of length 0).
func (s Span) IsNil() bool { return s.data == nil }

// Equal does a byte-exact comparison.
func (s Span) Equal(other Span) bool {
	if len(s.data) != len(other.data) {
		return false
	}
	for i := range s.data {
		if s.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// String renders the span as a Go string. For arena-backed spans this
// allocates a heap copy; callers on the hot get/put path should prefer
// Bytes() to avoid the copy.
func (s Span) String() string { return string(s.data) }

// AllocSpan copies b into a, appending a single convenience NUL byte past
// the authoritative length when space allows: the same technique
// arena.MakeString uses, generalized to arbitrary (possibly non-UTF8)
// bytes. Returns false if len(b) exceeds MaxSpanLen.
func AllocSpan(a *arena.Arena, b []byte) (Span, bool) {
	if len(b) > MaxSpanLen {
		return Span{}, false
	}
	n := len(b)
	ptr := a.Allocator.Alloc(uint64(n+1), 1)
	buf := unsafe.Slice((*byte)(ptr), n+1)
	copy(buf, b)
	buf[n] = 0
	return Span{data: buf[:n]}, true
}
