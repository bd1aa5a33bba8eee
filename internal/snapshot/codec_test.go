package snapshot

import (
	"bytes"
	"testing"
)

func roundTrip(t *testing.T, entries []Entry) []Entry {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, entries); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return got
}

func TestEncodeDecode_RoundTripsAllTags(t *testing.T) {
	entries := []Entry{
		{Key: []byte("n"), Tag: TagNull},
		{Key: []byte("s"), Tag: TagString, Bytes: []byte("hello world")},
		{Key: []byte("i"), Tag: TagInt64, I64: -42},
		{Key: []byte("d"), Tag: TagDouble, F64: 3.14159},
		{Key: []byte("b"), Tag: TagBool, Bool: true},
		{Key: []byte("x"), Tag: TagBinary, Bytes: []byte{0x00, 0x01, 0xff}},
	}

	got := roundTrip(t, entries)
	if len(got) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(got))
	}
	for i, e := range entries {
		g := got[i]
		if !bytes.Equal(g.Key, e.Key) || g.Tag != e.Tag {
			t.Fatalf("entry %d mismatch: want %+v got %+v", i, e, g)
		}
		switch e.Tag {
		case TagString, TagBinary:
			if !bytes.Equal(g.Bytes, e.Bytes) {
				t.Errorf("entry %d bytes mismatch: want %v got %v", i, e.Bytes, g.Bytes)
			}
		case TagInt64:
			if g.I64 != e.I64 {
				t.Errorf("entry %d int64 mismatch: want %d got %d", i, e.I64, g.I64)
			}
		case TagDouble:
			if g.F64 != e.F64 {
				t.Errorf("entry %d double mismatch: want %v got %v", i, e.F64, g.F64)
			}
		case TagBool:
			if g.Bool != e.Bool {
				t.Errorf("entry %d bool mismatch: want %v got %v", i, e.Bool, g.Bool)
			}
		}
	}
}

func TestEncodeDecode_EmptyStoreRoundTrips(t *testing.T) {
	got := roundTrip(t, nil)
	if len(got) != 0 {
		t.Fatalf("expected 0 entries, got %d", len(got))
	}
}

func TestEncode_WritesMagicAndCurrentVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	b := buf.Bytes()
	if len(b) < 7 {
		t.Fatalf("encoded header too short: %d bytes", len(b))
	}
	got := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	if got != Magic {
		t.Errorf("expected magic 0x%x, got 0x%x", Magic, got)
	}
	if b[4] != CurrentVersion.Major || b[5] != CurrentVersion.Minor || b[6] != CurrentVersion.Patch {
		t.Errorf("unexpected version bytes: %v", b[4:7])
	}
}

func TestDecode_BadMagicFails(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0}))
	if err == nil {
		t.Fatal("expected an error for bad magic")
	}
}

func TestDecode_FutureMajorVersionRejected(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	b := buf.Bytes()
	b[4] = CurrentVersion.Major + 1 // bump the major version byte

	_, err := Decode(bytes.NewReader(b))
	if err == nil {
		t.Fatal("expected an error for a newer major version")
	}
}

func TestDecode_TruncatedInputFails(t *testing.T) {
	var buf bytes.Buffer
	entries := []Entry{{Key: []byte("k"), Tag: TagString, Bytes: []byte("value")}}
	if err := Encode(&buf, entries); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	full := buf.Bytes()
	truncated := full[:len(full)-3]

	_, err := Decode(bytes.NewReader(truncated))
	if err == nil {
		t.Fatal("expected an error for truncated input")
	}
}

func TestDecode_OversizeKeyLengthFails(t *testing.T) {
	var hdr bytes.Buffer
	if err := Encode(&hdr, nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	// Overwrite the entry count with 1, then append a bogus oversize key length.
	b := hdr.Bytes()
	b[10] = 1 // count's low byte

	var bogusLen [4]byte
	bogusLen[0] = 0x7f // far larger than maxSpanLen
	b = append(b, bogusLen[:]...)

	_, err := Decode(bytes.NewReader(b))
	if err == nil {
		t.Fatal("expected an error for an oversize key length")
	}
}

func TestDoubleIsBigEndianOnTheWire(t *testing.T) {
	var buf bytes.Buffer
	entries := []Entry{{Key: []byte("d"), Tag: TagDouble, F64: 1.5}}
	if err := Encode(&buf, entries); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	b := buf.Bytes()
	payload := b[len(b)-8:]
	// 1.5 as IEEE-754 double is 0x3FF8000000000000; big-endian puts the
	// sign/exponent byte first.
	if payload[0] != 0x3f || payload[1] != 0xf8 {
		t.Errorf("expected big-endian double encoding, got % x", payload)
	}
}
