package sparse

import "fmt"

// Proxy addresses a cell one axis at a time, as in
//
//	m.Index(2).Index(7).Write(5)
//
// Each Index call returns a new Proxy carrying one more coordinate
// component; nothing touches the matrix until Read or Write. A Proxy reads
// and writes whatever cells m holds at that moment, so it is meant to live
// for one expression and should not be kept.
//
// Indexing errors are sticky: they are reported by the terminal Read or
// Write.
type Proxy[K Coordinate, V Number] struct {
	m     *Matrix[K, V]
	coord K
	depth int
	err   error
}

// Index starts a Proxy at axis 0.
func (m *Matrix[K, V]) Index(i uint) Proxy[K, V] {
	return Proxy[K, V]{m: m}.Index(i)
}

// Index fixes the next axis.
func (p Proxy[K, V]) Index(i uint) Proxy[K, V] {
	if p.err != nil {
		return p
	}
	if p.depth == len(p.coord) {
		p.err = fmt.Errorf("%w: index %d beyond rank %d", ErrTooManyIndices, i, len(p.coord))
		return p
	}
	p.coord[p.depth] = i
	p.depth++
	return p
}

// Coord returns the coordinate built so far; axes not yet indexed are 0.
func (p Proxy[K, V]) Coord() K {
	return p.coord
}

func (p Proxy[K, V]) complete() error {
	if p.err != nil {
		return p.err
	}
	if p.depth < len(p.coord) {
		return fmt.Errorf("%w: %d of %d axes", ErrIncompleteIndex, p.depth, len(p.coord))
	}
	return nil
}

// Read returns the value of the addressed cell, or the default if it is
// unoccupied. On error the default is returned too.
func (p Proxy[K, V]) Read() (V, error) {
	if err := p.complete(); err != nil {
		return p.m.s.def, err
	}
	return p.m.Get(p.coord), nil
}

// Write stores v in the addressed cell; writing the default frees it.
func (p Proxy[K, V]) Write(v V) error {
	if err := p.complete(); err != nil {
		return err
	}
	p.m.Set(p.coord, v)
	return nil
}
