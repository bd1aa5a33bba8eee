// arena/arena.go
//
// Package arena provides a zero-GC bump allocator used to back the key/value
// store's entries: keys and STRING/BINARY value bytes live in arena blocks
// instead of individually heap-allocated Go byte slices, so the store never
// hands the garbage collector a graph of small objects to scan.
//
// Thread Safety:
//   - Alloc() is serialized with a mutex to prevent data races
//   - Reset() and Delete() should NOT be called concurrently with Alloc() or with each other
//   - Multiple Arena instances are completely independent and require no synchronization
//
// Memory Model:
//   - All memory is allocated via mmap and lives outside Go's garbage collector
//   - Memory is never returned to the OS until Delete() is called
//   - Reset() clears allocations but retains underlying memory pages
//   - There is no per-entry free: Remove is a no-op. Deletion and overwrite
//     of store entries leak their old arena bytes until the next Reset/clear
//     — a documented trade-off, not a bug.
package arena

import (
	"syscall"
	"unsafe"
)

const DefaultBlockSize = 64 * 1024

// Arena is a bump allocator wrapped behind the Allocator interface so
// callers (the hash table, the snapshot writer/reader) don't depend on the
// concrete strategy.
type Arena struct {
	Allocator
}

// New creates an arena. pages == 0 → 1 page (4 KiB default).
func New(pages int) *Arena {
	if pages <= 0 {
		pages = 1
	}
	size := pages * syscall.Getpagesize()
	return &Arena{Allocator: NewBumpAllocator(size)}
}

// NewBlockSize creates an arena whose blocks are blockSize bytes (rounded
// up to the page size by the underlying mmap call). blockSize <= 0 uses
// DefaultBlockSize — the 64 KiB block the key/value store allocates its
// entries from.
func NewBlockSize(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Arena{Allocator: NewBumpAllocator(blockSize)}
}

func (a *Arena) Reset() {
	a.Allocator.Reset()
}
func (a *Arena) Delete() {
	a.Allocator.Delete()
}

// Owns checks if the given pointer belongs to memory managed by this arena.
// Returns true if the pointer was allocated by this arena and is still valid.
// Returns false for nil pointers or pointers not managed by this arena.
func (a *Arena) Owns(ptr unsafe.Pointer) bool {
	return a.Allocator.Owns(ptr)
}

// Allocator is the raw block allocator interface. The bump strategy is the
// only implementation: the store's access pattern (allocate on put, bulk
// discard on clear) never needs per-object free, so a slab/buddy allocator
// would add bookkeeping the store never exercises.
type Allocator interface {
	Alloc(size, align uint64) unsafe.Pointer
	Reset()
	Delete()
	Remove(ptr unsafe.Pointer)
	Owns(ptr unsafe.Pointer) bool
}
