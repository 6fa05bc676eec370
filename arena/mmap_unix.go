//go:build unix

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mmap is a backing store that reserves max bytes of address space with
// a PROT_NONE private anonymous mapping and commits pages on demand as
// the arena grows. Reserving up front guarantees the base address never
// moves; PROT_NONE keeps uncommitted pages from consuming memory.
type Mmap struct {
	raw []byte // the whole reservation
	n   int    // logical arena length
	com int    // committed bytes, page aligned
}

// NewMmap reserves max bytes of address space.
func NewMmap(max int) (*Mmap, error) {
	if max <= 0 {
		return nil, fmt.Errorf("arena: reservation must be positive, got %d", max)
	}
	rnd := unix.Getpagesize() - 1
	reserved := (max + rnd) &^ rnd
	raw, err := unix.Mmap(-1, 0, reserved, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("arena: reserve %d bytes: %v", reserved, err)
	}
	return &Mmap{raw: raw}, nil
}

// Grow commits enough pages for n more bytes and returns the whole
// arena. Freshly committed anonymous pages are zeroed by the kernel.
func (m *Mmap) Grow(n int) ([]byte, error) {
	if n < 0 {
		return nil, errNegativeGrowth
	}
	want := m.n + n
	if want > len(m.raw) {
		return nil, ErrExhausted
	}
	if want > m.com {
		rnd := unix.Getpagesize() - 1
		com := (want + rnd) &^ rnd
		if com > len(m.raw) {
			com = len(m.raw)
		}
		if err := unix.Mprotect(m.raw[m.com:com], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return nil, fmt.Errorf("arena: commit %d bytes: %v", com-m.com, err)
		}
		m.com = com
	}
	m.n = want
	return m.raw[:m.n:m.com], nil
}

// Len returns the current arena length.
func (m *Mmap) Len() int { return m.n }

// Close unmaps the reservation. The Mmap and every slice it handed out
// must not be used afterwards.
func (m *Mmap) Close() error {
	if m.raw == nil {
		return nil
	}
	err := unix.Munmap(m.raw)
	m.raw = nil
	return err
}
