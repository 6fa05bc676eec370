// Package malloc implements an explicit free list, boundary tag memory
// allocator over a single contiguous growable arena.
//
// Every block carries its payload size and allocation bit in a tag word
// duplicated at both ends, and free blocks thread a doubly linked list
// through their own payload bytes. Allocation is first-fit with block
// splitting; freeing coalesces adjacent free blocks eagerly.
//
// IMPORTANT: this package is NOT goroutine safe. Every method assumes
// exclusive access to the allocator for its entire duration; callers
// needing concurrent use must serialize all entry points themselves.
package malloc

import (
	"fmt"
	"unsafe"
)

// Memory is the backing store the arena grows into. Grow extends the
// arena by n bytes and returns the whole arena slice. Implementations
// must never move the base address: payload slices handed out before a
// Grow stay valid after it.
type Memory interface {
	Grow(n int) ([]byte, error)
}

// Stats is a point-in-time snapshot of allocator state.
type Stats struct {
	ArenaBytes int
	FreeBytes  int
	FreeBlocks int
	Allocs     uint64
	Frees      uint64
	Grows      uint64
}

// Allocator manages one arena. The zero value is not usable; construct
// with New.
type Allocator struct {
	mem        Memory
	arena      []byte
	arenaStart unsafe.Pointer

	// freeHead is the header offset of the first free block, 0 when the
	// list is empty.
	freeHead int
	chunk    int

	allocs uint64
	frees  uint64
	grows  uint64
}

// New creates an allocator over mem with the default growth chunk.
// An error means the backing store could not supply the initial arena.
func New(mem Memory) (*Allocator, error) {
	return NewWithChunkSize(mem, DefaultChunkSize)
}

// NewWithChunkSize creates an allocator that grows the arena in chunks
// of at least chunk bytes. chunk must be a multiple of Alignment and
// large enough for the sentinels plus one minimal block.
func NewWithChunkSize(mem Memory, chunk int) (*Allocator, error) {
	if mem == nil {
		return nil, fmt.Errorf("malloc: nil backing memory")
	}
	if chunk%Alignment != 0 || chunk < 2*tagWord+minSplit {
		return nil, fmt.Errorf("malloc: chunk size must be a multiple of %d and >= %d, got %d",
			Alignment, 2*tagWord+minSplit, chunk)
	}
	buf, err := mem.Grow(chunk)
	if err != nil {
		return nil, fmt.Errorf("malloc: initial arena: %v", err)
	}
	a := &Allocator{
		mem:        mem,
		arena:      buf,
		arenaStart: unsafe.Pointer(&buf[0]),
		chunk:      chunk,
	}
	a.initArena()
	return a, nil
}

// initArena lays out prologue sentinel, one maximal free block, and
// epilogue sentinel across the current arena.
func (a *Allocator) initArena() {
	a.freeHead = 0
	a.writeTag(0, packTag(0, true))
	a.setBlock(tagWord, len(a.arena)-4*tagWord, false)
	a.writeTag(len(a.arena)-tagWord, packTag(0, true))
	a.push(tagWord)
}

// Alloc allocates size bytes and returns the block payload with
// len == size and cap equal to the full payload capacity. It returns
// nil when size <= 0 or when the backing store cannot grow; a failed
// grow leaves the arena and the free list exactly as they were.
func (a *Allocator) Alloc(size int) []byte {
	if size <= 0 {
		return nil
	}
	asize := alignUp(size)
	off := a.firstFit(asize)
	if off == 0 {
		n := a.chunk
		if asize+blockOverhead > n {
			n = asize + blockOverhead
		}
		var ok bool
		if off, ok = a.extend(n); !ok {
			return nil
		}
	}
	a.place(off, asize)
	a.allocs++
	pay := off + tagWord
	return a.arena[pay : pay+size : pay+a.blockSize(off)]
}

// Free returns a block to the allocator and merges it with any free
// neighbors. Freeing nil, an empty slice, or an already-free block is a
// no-op. The block must be the slice returned by Alloc (not resliced
// from a different start); memory outside the arena panics.
func (a *Allocator) Free(block []byte) {
	if cap(block) == 0 {
		return
	}
	a.freeAt(a.dataOffset(block))
}

// FreeAt is Free keyed by the payload offset inside the arena, as
// reported by Offset.
func (a *Allocator) FreeAt(dataOffset int) {
	a.freeAt(dataOffset)
}

// Offset returns the arena offset of a block's payload.
func (a *Allocator) Offset(block []byte) int {
	return a.dataOffset(block)
}

// IsValidOffset reports whether a data offset is in bounds and aligned.
// It does not inspect allocation state; use it to pre-validate untrusted
// offsets before FreeAt.
func (a *Allocator) IsValidOffset(dataOffset int) bool {
	return dataOffset >= blockOverhead &&
		dataOffset < len(a.arena)-blockOverhead &&
		dataOffset%Alignment == 0
}

func (a *Allocator) dataOffset(block []byte) int {
	// Read the slice base directly so zero-length slices work too.
	dataPtr := *(*uintptr)(unsafe.Pointer(&block))
	return int(dataPtr - uintptr(a.arenaStart))
}

func (a *Allocator) freeAt(dataOff int) {
	if dataOff < blockOverhead || dataOff >= len(a.arena)-blockOverhead {
		panic("malloc: block not in arena")
	}
	if dataOff%Alignment != 0 {
		panic("malloc: misaligned block")
	}
	off := dataOff - tagWord
	if a.blockFree(off) {
		// Double free is a no-op.
		return
	}
	a.setBlock(off, a.blockSize(off), false)
	a.frees++
	a.coalesce(off)
}

// Realloc resizes a block. A nil block behaves as Alloc; size <= 0
// behaves as Free and returns nil. When the current block already has
// room for the aligned size plus a tag pair the same payload is returned
// resliced, with no shrink split and no in-place growth; otherwise a
// fresh block is allocated, min(old, new) bytes are copied, and the old
// block is freed. A failed grow returns nil and leaves the old block
// intact.
func (a *Allocator) Realloc(block []byte, size int) []byte {
	if cap(block) == 0 {
		return a.Alloc(size)
	}
	if size <= 0 {
		a.Free(block)
		return nil
	}
	dataOff := a.dataOffset(block)
	if dataOff < blockOverhead || dataOff >= len(a.arena)-blockOverhead {
		panic("malloc: block not in arena")
	}
	if dataOff%Alignment != 0 {
		panic("malloc: misaligned block")
	}
	oldSize := a.blockSize(dataOff - tagWord)
	if oldSize >= alignUp(size)+blockOverhead {
		return a.arena[dataOff : dataOff+size : dataOff+oldSize]
	}
	fresh := a.Alloc(size)
	if fresh == nil {
		return nil
	}
	n := oldSize
	if size < n {
		n = size
	}
	copy(fresh, a.arena[dataOff:dataOff+n])
	a.freeAt(dataOff)
	return fresh
}

// Calloc allocates n*elemSize bytes and zero-fills them. The multiply
// carries no overflow guard; callers own overflow avoidance.
func (a *Allocator) Calloc(n, elemSize int) []byte {
	b := a.Alloc(n * elemSize)
	if b == nil {
		return nil
	}
	for i := range b {
		b[i] = 0
	}
	return b
}

// Available returns the total free payload bytes across the free list.
func (a *Allocator) Available() int {
	total := 0
	for off := a.freeHead; off != 0; off = a.linkNext(off) {
		total += a.blockSize(off)
	}
	return total
}

// Stats returns a snapshot of allocator counters and free-list totals.
func (a *Allocator) Stats() Stats {
	s := Stats{
		ArenaBytes: len(a.arena),
		Allocs:     a.allocs,
		Frees:      a.frees,
		Grows:      a.grows,
	}
	for off := a.freeHead; off != 0; off = a.linkNext(off) {
		s.FreeBlocks++
		s.FreeBytes += a.blockSize(off)
	}
	return s
}

// Reset discards all allocations and returns the arena, at its current
// size, to a single maximal free block. Counters are not reset.
func (a *Allocator) Reset() {
	a.initArena()
}
