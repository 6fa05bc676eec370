package malloc

import "encoding/binary"

const (
	// tagWord is the width of one boundary tag.
	tagWord = 8

	// blockOverhead is the header plus footer cost carried by every block.
	blockOverhead = 2 * tagWord

	// Alignment is the payload alignment unit. Payload sizes are always
	// rounded up to a multiple of it.
	Alignment = 16

	// minSplit is the smallest leftover worth carving into a block of its
	// own: a tag pair plus one aligned payload. Anything smaller stays
	// inside the allocated block as internal fragmentation.
	minSplit = 2*tagWord + Alignment

	// DefaultChunkSize is the granularity the arena grows by.
	DefaultChunkSize = 4096

	allocBit = 1
)

// A boundary tag packs a block's payload size and its allocation state
// into one word, written at both ends of the block. The size is a
// multiple of Alignment, so the low bit is free to carry the state.
func packTag(size int, allocated bool) uint64 {
	tag := uint64(size)
	if allocated {
		tag |= allocBit
	}
	return tag
}

func tagSize(tag uint64) int { return int(tag &^ allocBit) }

func tagAllocated(tag uint64) bool { return tag&allocBit != 0 }

func alignUp(n int) int { return (n + Alignment - 1) &^ (Alignment - 1) }

func (a *Allocator) readTag(off int) uint64 {
	return binary.LittleEndian.Uint64(a.arena[off:])
}

func (a *Allocator) writeTag(off int, tag uint64) {
	binary.LittleEndian.PutUint64(a.arena[off:], tag)
}

// Blocks are identified by the offset of their header word. The payload
// follows the header; the footer duplicates the header at the far end.
func (a *Allocator) blockSize(off int) int { return tagSize(a.readTag(off)) }

func (a *Allocator) blockFree(off int) bool { return !tagAllocated(a.readTag(off)) }

// setBlock writes matching header and footer tags for a block.
func (a *Allocator) setBlock(off, size int, allocated bool) {
	tag := packTag(size, allocated)
	a.writeTag(off, tag)
	a.writeTag(off+tagWord+size, tag)
}

// nextBlock steps to the physically following block. The arena ends with
// a zero-size allocated epilogue, so the walk cannot run off the edge.
func (a *Allocator) nextBlock(off int) int {
	return off + blockOverhead + a.blockSize(off)
}

// prevBlock decodes the preceding block's footer and steps back over it.
// Must not be called when that footer is the prologue sentinel.
func (a *Allocator) prevBlock(off int) int {
	return off - blockOverhead - tagSize(a.readTag(off-tagWord))
}
