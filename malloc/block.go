package malloc

// place marks a free block allocated for a payload of size bytes. When
// the leftover is too small to stand alone it is kept inside the block
// as internal fragmentation; otherwise the block is split.
func (a *Allocator) place(off, size int) {
	bsize := a.blockSize(off)
	if bsize-size >= minSplit {
		a.split(off, size)
		return
	}
	a.unlink(off)
	a.setBlock(off, bsize, true)
}

// split carves a free block into an allocated block of size bytes and a
// free remainder. If the remainder's right neighbor is also free the two
// merge immediately: two free blocks are never left physically adjacent.
func (a *Allocator) split(off, size int) {
	rest := a.blockSize(off) - size - blockOverhead
	a.unlink(off)
	a.setBlock(off, size, true)

	restOff := off + blockOverhead + size
	a.setBlock(restOff, rest, false)
	if a.blockFree(a.nextBlock(restOff)) {
		a.coalesce(restOff)
	} else {
		a.push(restOff)
	}
}

// coalesce merges a freshly freed block with whichever physical
// neighbors are free and inserts the result into the free list. The
// prologue and epilogue sentinels read as allocated, so blocks at the
// arena edges never merge outward. Exactly one list entry covers the
// merged range afterwards.
func (a *Allocator) coalesce(off int) {
	size := a.blockSize(off)
	leftTag := a.readTag(off - tagWord)
	right := off + blockOverhead + size
	leftFree := !tagAllocated(leftTag)
	rightFree := a.blockFree(right)

	switch {
	case !leftFree && !rightFree:
		a.push(off)

	case !leftFree && rightFree:
		a.unlink(right)
		size += a.blockSize(right) + blockOverhead
		a.setBlock(off, size, false)
		a.push(off)

	case leftFree && !rightFree:
		left := a.prevBlock(off)
		a.unlink(left)
		size += tagSize(leftTag) + blockOverhead
		a.setBlock(left, size, false)
		a.push(left)

	default:
		left := a.prevBlock(off)
		a.unlink(left)
		a.unlink(right)
		size += tagSize(leftTag) + a.blockSize(right) + 2*blockOverhead
		a.setBlock(left, size, false)
		a.push(left)
	}
}

// extend grows the arena by at least n bytes and returns the header
// offset of the resulting free block. The old epilogue word becomes the
// new block's header and a fresh epilogue is written at the new end. A
// free block trailing the old boundary is merged in, so growth never
// leaves two adjacent free blocks. On failure the arena and the free
// list are untouched.
func (a *Allocator) extend(n int) (int, bool) {
	n = alignUp(n)
	old := len(a.arena)
	buf, err := a.mem.Grow(n)
	if err != nil {
		return 0, false
	}
	a.arena = buf
	a.grows++

	off := old - tagWord
	a.setBlock(off, n-blockOverhead, false)
	a.writeTag(len(a.arena)-tagWord, packTag(0, true))

	if !tagAllocated(a.readTag(off - tagWord)) {
		merged := a.prevBlock(off)
		a.coalesce(off)
		return merged, true
	}
	a.push(off)
	return off, true
}
