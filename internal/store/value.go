package store

import "github.com/thebagchi/kvstored/arena"

// Kind is the typed value's tag. The numeric values are also the on-disk
// snapshot tag byte, so the two must never drift apart.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt64
	KindDouble
	KindBool
	KindBinary
)

// String names the kind the way the TYPE command renders it.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt64:
		return "int64"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Value is the tagged union of the six domain types. Bytes holds the
// STRING/BINARY payload; exactly one of Bytes/I64/F64/Bool is meaningful
// depending on Kind.
type Value struct {
	Kind  Kind
	Bytes []byte
	I64   int64
	F64   float64
	Bool  bool
}

// NullValue constructs a NULL value. NULL carries no payload.
func NullValue() Value { return Value{Kind: KindNull} }

// Int64Value constructs an INT64 value.
func Int64Value(n int64) Value { return Value{Kind: KindInt64, I64: n} }

// DoubleValue constructs a DOUBLE value.
func DoubleValue(f float64) Value { return Value{Kind: KindDouble, F64: f} }

// BoolValue constructs a BOOL value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// StringValue constructs a STRING value from caller-owned bytes. The bytes
// are copied into the table's arena by Table.Put — STRING is conventionally
// UTF-8-ish but is never validated as such.
func StringValue(b []byte) Value { return Value{Kind: KindString, Bytes: b} }

// BinaryValue constructs a BINARY value from caller-owned, arbitrary bytes.
func BinaryValue(b []byte) Value { return Value{Kind: KindBinary, Bytes: b} }

// StringValueHeap and BinaryValueHeap construct values from bytes that are
// not destined to pass through Table.Put's arena copy. The Go heap (not the
// arena) owns Bytes, and Release is a documented no-op, mirroring the
// arena's own lack of a per-object free for the bump allocator. The methods
// exist for construct/destroy API-shape parity, not because anything must
// be called.
func StringValueHeap(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{Kind: KindString, Bytes: cp}
}

func BinaryValueHeap(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{Kind: KindBinary, Bytes: cp}
}

// Release is a no-op: in-arena values never free (the arena bulk-reclaims
// on Reset/Delete) and heap-owned values are reclaimed by the Go garbage
// collector. It exists only so callers that mirror a construct/destroy
// pairing have something to call.
func (v Value) Release(*arena.Arena) {}
