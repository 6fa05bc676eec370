package malloc

import "encoding/binary"

// The free list is intrusive: a free block's payload doubles as link
// storage, one word each for the next and prev block header offsets.
// Offset 0 encodes "none" (no block header can sit at the prologue).
// A block is a list member iff its allocation bit is clear; membership
// is never tracked separately.

func (a *Allocator) linkNext(off int) int {
	return int(binary.LittleEndian.Uint64(a.arena[off+tagWord:]))
}

func (a *Allocator) linkPrev(off int) int {
	return int(binary.LittleEndian.Uint64(a.arena[off+2*tagWord:]))
}

func (a *Allocator) setLinkNext(off, next int) {
	binary.LittleEndian.PutUint64(a.arena[off+tagWord:], uint64(next))
}

func (a *Allocator) setLinkPrev(off, prev int) {
	binary.LittleEndian.PutUint64(a.arena[off+2*tagWord:], uint64(prev))
}

// push inserts a free block at the head of the list, LIFO order.
func (a *Allocator) push(off int) {
	a.setLinkNext(off, a.freeHead)
	a.setLinkPrev(off, 0)
	if a.freeHead != 0 {
		a.setLinkPrev(a.freeHead, off)
	}
	a.freeHead = off
}

// unlink splices a block out of the list. The caller guarantees the
// block is currently a member; no duplicate-membership check is made.
func (a *Allocator) unlink(off int) {
	prev, next := a.linkPrev(off), a.linkNext(off)
	if prev != 0 {
		a.setLinkNext(prev, next)
	} else {
		a.freeHead = next
	}
	if next != 0 {
		a.setLinkPrev(next, prev)
	}
}

// firstFit returns the first free block with payload >= size, scanning
// in list order, or 0 when the list is exhausted. The scan touches only
// free blocks, never the whole arena.
func (a *Allocator) firstFit(size int) int {
	for off := a.freeHead; off != 0; off = a.linkNext(off) {
		if a.blockSize(off) >= size {
			return off
		}
	}
	return 0
}
