package snapshot

import (
	"encoding/binary"
	"io"

	"github.com/thebagchi/kvstored/arena"
)

// byteReader adapts arena.Reader (arena/rw.go) to the small set of
// fixed-width reads the codec needs. The whole file is read into memory
// once, then parsed via the arena-backed Reader.
type byteReader struct {
	scratch *arena.Arena
	r       *arena.Reader
}

func newByteReader(src io.Reader) *byteReader {
	data, err := io.ReadAll(src)
	if err != nil {
		data = nil
	}
	scratch := arena.New(0)
	return &byteReader{scratch: scratch, r: arena.NewReader(scratch, data)}
}

func (b *byteReader) bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	read := 0
	for read < n {
		m, err := b.r.Read(buf[read:])
		read += m
		if err != nil {
			if read == n {
				break
			}
			return nil, io.ErrUnexpectedEOF
		}
		if m == 0 {
			return nil, io.ErrUnexpectedEOF
		}
	}
	return buf, nil
}

func (b *byteReader) byte_() (byte, error) {
	buf, err := b.bytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (b *byteReader) uint32() (uint32, error) {
	buf, err := b.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

func (b *byteReader) close() {
	b.scratch.Delete()
}

func (b *byteReader) uint64() (uint64, error) {
	buf, err := b.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf), nil
}
