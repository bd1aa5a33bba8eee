// Package snapshot implements a versioned, magic-tagged, big-endian
// snapshot codec. It knows nothing about the hash table or the arena — it
// only turns a slice of Entry into bytes and back — so internal/store can
// depend on it without a cycle.
//
// The file body is staged in an arena.Writer (arena/rw.go) before being
// handed to the caller: Encode allocates a small scratch arena, appends
// every field through the arena-backed Writer, then returns the final byte
// slice for the caller to persist however it likes (Store.Save uses
// github.com/natefinch/atomic for a tempfile-then-rename write).
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/thebagchi/kvstored/arena"
)

// Magic is the 32-bit big-endian file tag.
const Magic uint32 = 0x4B56DB02

// Version is the on-disk format version. Decode rejects a file whose Major
// is newer than CurrentVersion.Major.
type Version struct {
	Major, Minor, Patch uint8
}

// CurrentVersion is written by Encode.
var CurrentVersion = Version{Major: 1, Minor: 0, Patch: 0}

// Tag is the on-disk value-kind byte. Values match store.Kind numerically;
// this package does not import internal/store to avoid a cycle, so the
// caller (internal/store/snapshot.go) converts between the two with a plain
// numeric cast that relies on both enums keeping the same order.
type Tag uint8

const (
	TagNull Tag = iota
	TagString
	TagInt64
	TagDouble
	TagBool
	TagBinary
)

// Entry is one record: a key and exactly the payload its Tag calls for.
type Entry struct {
	Key   []byte
	Tag   Tag
	Bytes []byte // STRING / BINARY payload
	I64   int64
	F64   float64
	Bool  bool
}

var (
	// ErrInvalidFormat wraps every decode failure that stems from malformed
	// bytes: bad magic, a short read, or an unknown tag.
	ErrInvalidFormat = errors.New("invalid snapshot format")
	// ErrVersionMismatch is returned when the file's major version is
	// newer than CurrentVersion.Major.
	ErrVersionMismatch = errors.New("snapshot version mismatch")
)

// Encode writes the full snapshot body (magic, version, count, entries) to
// w, using an arena.Writer as scratch space so building the byte stream
// allocates nothing on the Go heap until the final Bytes() copy leaves the
// arena.
func Encode(w io.Writer, entries []Entry) error {
	scratch := arena.New(0)
	defer scratch.Delete()

	aw := arena.NewWriter(scratch)

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], Magic)
	_, _ = aw.Write(hdr[:])
	_ = aw.WriteByte(CurrentVersion.Major)
	_ = aw.WriteByte(CurrentVersion.Minor)
	_ = aw.WriteByte(CurrentVersion.Patch)

	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(entries)))
	_, _ = aw.Write(countBuf[:])

	for _, e := range entries {
		if err := writeEntry(aw, e); err != nil {
			return err
		}
	}

	_, err := w.Write(aw.Bytes())
	return err
}

func writeEntry(aw *arena.Writer, e Entry) error {
	var klen [4]byte
	binary.BigEndian.PutUint32(klen[:], uint32(len(e.Key)))
	if _, err := aw.Write(klen[:]); err != nil {
		return err
	}
	if _, err := aw.Write(e.Key); err != nil {
		return err
	}
	if err := aw.WriteByte(byte(e.Tag)); err != nil {
		return err
	}

	switch e.Tag {
	case TagNull:
		// no payload
	case TagString, TagBinary:
		var blen [4]byte
		binary.BigEndian.PutUint32(blen[:], uint32(len(e.Bytes)))
		if _, err := aw.Write(blen[:]); err != nil {
			return err
		}
		if _, err := aw.Write(e.Bytes); err != nil {
			return err
		}
	case TagInt64:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(e.I64))
		if _, err := aw.Write(buf[:]); err != nil {
			return err
		}
	case TagDouble:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(e.F64))
		if _, err := aw.Write(buf[:]); err != nil {
			return err
		}
	case TagBool:
		b := byte(0)
		if e.Bool {
			b = 1
		}
		if err := aw.WriteByte(b); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown tag %d", ErrInvalidFormat, e.Tag)
	}
	return nil
}

// Decode reads a full snapshot body from r. It validates the magic and
// rejects a newer major version, but otherwise ignores the version.
func Decode(r io.Reader) ([]Entry, error) {
	br := newByteReader(r)
	defer br.close()

	magic, err := br.uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}

	major, err := br.byte_()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if _, err := br.byte_(); err != nil { // minor
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if _, err := br.byte_(); err != nil { // patch
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if major > CurrentVersion.Major {
		return nil, ErrVersionMismatch
	}

	count, err := br.uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := readEntry(br)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func readEntry(br *byteReader) (Entry, error) {
	klen, err := br.uint32()
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if klen > maxSpanLen {
		return Entry{}, fmt.Errorf("%w: oversize key length %d", ErrInvalidFormat, klen)
	}
	key, err := br.bytes(int(klen))
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	tagByte, err := br.byte_()
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	tag := Tag(tagByte)

	e := Entry{Key: key, Tag: tag}
	switch tag {
	case TagNull:
		// nothing to read
	case TagString, TagBinary:
		blen, err := br.uint32()
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if blen > maxSpanLen {
			return Entry{}, fmt.Errorf("%w: oversize value length %d", ErrInvalidFormat, blen)
		}
		b, err := br.bytes(int(blen))
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		e.Bytes = b
	case TagInt64:
		u, err := br.uint64()
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		e.I64 = int64(u)
	case TagDouble:
		u, err := br.uint64()
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		e.F64 = math.Float64frombits(u)
	case TagBool:
		b, err := br.byte_()
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		e.Bool = b != 0
	default:
		return Entry{}, fmt.Errorf("%w: unknown tag %d", ErrInvalidFormat, tagByte)
	}
	return e, nil
}

// maxSpanLen mirrors store.MaxSpanLen without importing internal/store.
const maxSpanLen = 1 << 20
