//go:build !unix

package arena

import "fmt"

// Mmap falls back to a plain up-front reservation on platforms without
// anonymous mmap. The base address is still stable: growth only extends
// the slice length.
type Mmap struct {
	buf []byte
}

// NewMmap reserves max bytes of backing capacity.
func NewMmap(max int) (*Mmap, error) {
	if max <= 0 {
		return nil, fmt.Errorf("arena: reservation must be positive, got %d", max)
	}
	return &Mmap{buf: make([]byte, 0, max)}, nil
}

// Grow extends the arena by n bytes and returns the whole arena.
func (m *Mmap) Grow(n int) ([]byte, error) {
	if n < 0 {
		return nil, errNegativeGrowth
	}
	if len(m.buf)+n > cap(m.buf) {
		return nil, ErrExhausted
	}
	m.buf = m.buf[: len(m.buf)+n]
	return m.buf, nil
}

// Len returns the current arena length.
func (m *Mmap) Len() int { return len(m.buf) }

// Close releases the reservation.
func (m *Mmap) Close() error {
	m.buf = nil
	return nil
}
