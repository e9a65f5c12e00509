package sparse

import "iter"

// Cell is one occupied cell.
type Cell[K Coordinate, V Number] struct {
	Coord K
	Value V
}

// Axis returns the cell's coordinate along the given axis.
func (c Cell[K, V]) Axis(axis int) uint {
	return c.Coord[axis]
}

// Iterator walks the occupied cells of a matrix once, in coordinate order
// (lexicographic, axis 0 major):
//
//	it := m.Cells()
//	for it.Next() {
//		cell := it.Cell()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
//
// Writing to the matrix while iterating is not supported. An Iterator that
// notices a write stops, and Err returns ErrConcurrentModification. Writes
// after the iteration has finished are not reported.
type Iterator[K Coordinate, V Number] struct {
	s     *store[K, V]
	stack iterItemStack[K, V]
	mods  uint64
	cell  Cell[K, V]
	err   error
	done  bool
}

// Cells returns an iterator positioned before the first occupied cell.
func (m *Matrix[K, V]) Cells() *Iterator[K, V] {
	return &Iterator[K, V]{
		s:     m.s,
		stack: newIterItemStack(m.s.tree.root),
		mods:  m.s.mods,
	}
}

// Next advances to the next cell, returning false when there are no more or
// the iteration failed.
func (it *Iterator[K, V]) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	if it.s.mods != it.mods {
		it.err = ErrConcurrentModification
		return false
	}
	item := it.stack.next()
	if item == nil {
		it.done = true
		return false
	}
	it.cell = Cell[K, V]{Coord: item.key, Value: item.value}
	return true
}

// Cell returns the current cell.
func (it *Iterator[K, V]) Cell() Cell[K, V] {
	return it.cell
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator[K, V]) Err() error {
	return it.err
}

// Iter invokes f for every occupied cell in coordinate order. The iteration
// stops at the first error, which is returned.
func (m *Matrix[K, V]) Iter(f func(K, V) error) error {
	it := m.Cells()
	for it.Next() {
		err := f(it.cell.Coord, it.cell.Value)
		if err != nil {
			return err
		}
	}
	return it.Err()
}

// All returns the occupied cells as a sequence, in coordinate order. The
// sequence ends early if the matrix is written to during iteration.
func (m *Matrix[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		it := m.Cells()
		for it.Next() {
			if !yield(it.cell.Coord, it.cell.Value) {
				return
			}
		}
	}
}
