package malloc

import "fmt"

// CheckHeap walks the arena from prologue to epilogue and verifies every
// structural invariant: sentinel integrity, header/footer agreement,
// size alignment, no two adjacent free blocks, and that the free list
// and the physical walk agree on exactly which blocks are free. It is a
// diagnostic for tests and debugging; no allocation path calls it.
func (a *Allocator) CheckHeap() error {
	end := len(a.arena) - tagWord
	if pro := a.readTag(0); pro != packTag(0, true) {
		return fmt.Errorf("malloc: corrupt prologue tag %#x", pro)
	}
	if epi := a.readTag(end); epi != packTag(0, true) {
		return fmt.Errorf("malloc: corrupt epilogue tag %#x", epi)
	}

	free := make(map[int]bool)
	prevFree := false
	for off := tagWord; off != end; {
		tag := a.readTag(off)
		size := tagSize(tag)
		if size < Alignment || size%Alignment != 0 {
			return fmt.Errorf("malloc: block %d has bad size %d", off, size)
		}
		foot := off + tagWord + size
		if foot+tagWord > end {
			return fmt.Errorf("malloc: block %d (size %d) overruns arena", off, size)
		}
		if ft := a.readTag(foot); ft != tag {
			return fmt.Errorf("malloc: block %d header %#x != footer %#x", off, tag, ft)
		}
		if !tagAllocated(tag) {
			if prevFree {
				return fmt.Errorf("malloc: adjacent free blocks at %d", off)
			}
			free[off] = true
			prevFree = true
		} else {
			prevFree = false
		}
		off = foot + tagWord
	}

	seen := 0
	prev := 0
	for off := a.freeHead; off != 0; off = a.linkNext(off) {
		if !free[off] {
			return fmt.Errorf("malloc: free list entry %d is not a free block", off)
		}
		if got := a.linkPrev(off); got != prev {
			return fmt.Errorf("malloc: block %d back link %d, want %d", off, got, prev)
		}
		seen++
		if seen > len(free) {
			return fmt.Errorf("malloc: free list cycle detected")
		}
		prev = off
	}
	if seen != len(free) {
		return fmt.Errorf("malloc: free list has %d entries, arena walk found %d free blocks",
			seen, len(free))
	}
	return nil
}
