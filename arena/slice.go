// Package arena provides backing stores for the malloc allocator. Each
// store reserves its full address range up front so the arena base never
// moves as it grows.
package arena

import (
	"errors"

	"github.com/bytedance/gopkg/lang/mcache"
)

// ErrExhausted is returned by Grow when the reservation is used up.
var ErrExhausted = errors.New("arena: reservation exhausted")

var errNegativeGrowth = errors.New("arena: negative growth")

// Slice is a portable backing store over one buffer acquired from mcache
// with the full capacity reserved up front. Growth only extends the
// slice length, so the base address is stable for the store's lifetime.
type Slice struct {
	buf []byte
	max int
}

// NewSlice reserves max bytes of backing capacity.
func NewSlice(max int) *Slice {
	if max <= 0 {
		return &Slice{}
	}
	return &Slice{buf: mcache.Malloc(0, max), max: max}
}

// Grow extends the arena by n bytes and returns the whole arena.
// mcache hands back recycled memory, so the extension is zeroed the way
// a fresh sbrk region would be.
func (s *Slice) Grow(n int) ([]byte, error) {
	if n < 0 {
		return nil, errNegativeGrowth
	}
	old := len(s.buf)
	if old+n > s.max {
		return nil, ErrExhausted
	}
	s.buf = s.buf[: old+n : cap(s.buf)]
	ext := s.buf[old:]
	for i := range ext {
		ext[i] = 0
	}
	return s.buf, nil
}

// Len returns the current arena length.
func (s *Slice) Len() int { return len(s.buf) }

// Close returns the reservation to mcache. The Slice and every slice it
// handed out must not be used afterwards.
func (s *Slice) Close() {
	if s.buf != nil {
		mcache.Free(s.buf)
		s.buf = nil
	}
}
