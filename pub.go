package sparse

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Number is the set of element types a Matrix can hold.
type Number interface {
	constraints.Integer | constraints.Float | constraints.Complex
}

// Options sets parameters for a matrix's store. The zero value, and a nil
// *Options, mean defaults.
type Options struct {
	// BranchFactor, or number of entries per tree node. 0 means use DefaultBranchFactor.
	BranchFactor uint

	// Debug traces tree restructuring to stdout and validates the tree after every change.
	Debug bool

	// DigestCache caches digests of nodes shared between matrices and may be shared across matrices.
	DigestCache DigestCache
}

// Matrix is a sparse matrix of fixed dimensionality: the length of the
// coordinate type K. Only cells whose value differs from the default are
// stored. A Matrix is not safe for concurrent use.
type Matrix[K Coordinate, V Number] struct {
	s       *store[K, V]
	options Options
}

// New returns an empty matrix whose every cell reads as def.
func New[K Coordinate, V Number](def V, options *Options) *Matrix[K, V] {
	m := &Matrix[K, V]{}
	if options != nil {
		m.options = *options
	}
	m.s = newStore[K, V](def, &m.options)
	return m
}

// FromSlice returns a matrix holding values[i] at the coordinate whose
// axis 0 is i and every other axis is 0.
func FromSlice[K Coordinate, V Number](def V, values []V, options *Options) *Matrix[K, V] {
	m := New[K, V](def, options)
	for i, v := range values {
		m.s.set(coordOf[K](uint(i)), v)
	}
	return m
}

// FromRows returns a matrix holding rows[j][i] at the coordinate whose
// axis 0 is i and axis 1 is j; every other axis is 0. It fails with ErrRank
// for one-dimensional coordinates.
func FromRows[K Coordinate, V Number](def V, rows [][]V, options *Options) (*Matrix[K, V], error) {
	if r := rank[K](); r < 2 {
		return nil, fmt.Errorf("%w: rows need 2 axes, have %d", ErrRank, r)
	}
	m := New[K, V](def, options)
	for j, row := range rows {
		for i, v := range row {
			m.s.set(coordOf[K](uint(i), uint(j)), v)
		}
	}
	return m, nil
}

// Default returns the value of every unoccupied cell.
func (m *Matrix[K, V]) Default() V {
	return m.s.def
}

// Rank returns the number of axes.
func (m *Matrix[K, V]) Rank() int {
	return rank[K]()
}

// Get returns the value at c, which is the default unless c is occupied.
func (m *Matrix[K, V]) Get(c K) V {
	return m.s.get(c)
}

// Set stores v at c. Setting the default value frees the cell.
func (m *Matrix[K, V]) Set(c K, v V) {
	m.s.set(c, v)
}

// Len returns the number of occupied cells.
func (m *Matrix[K, V]) Len() int {
	return m.s.count()
}

// Clear frees every cell.
func (m *Matrix[K, V]) Clear() {
	m.s.clear()
}

// Extent returns one more than the largest coordinate of an occupied cell
// along the given axis (counting from 0). It is 0 for an empty matrix or an
// axis the matrix doesn't have.
func (m *Matrix[K, V]) Extent(axis int) uint {
	return m.s.extents.extent(axis)
}

// Shape returns the extents along every axis.
func (m *Matrix[K, V]) Shape() K {
	var shape K
	for i := 0; i < len(shape); i++ {
		shape[i] = m.s.extents.extent(i)
	}
	return shape
}

// Clone returns an independent copy of m. The copy shares storage with m
// until either is written to, so cloning is cheap.
func (m *Matrix[K, V]) Clone() *Matrix[K, V] {
	return &Matrix[K, V]{s: m.s.clone(), options: m.options}
}

// Move returns a matrix that takes over m's cells, leaving m empty.
func (m *Matrix[K, V]) Move() *Matrix[K, V] {
	moved := &Matrix[K, V]{s: m.s, options: m.options}
	m.s = newStore[K, V](moved.s.def, &m.options)
	return moved
}

// Equal reports whether both matrices have the same occupied cells holding
// the same values. Subtrees shared since a Clone are not compared.
func (m *Matrix[K, V]) Equal(other *Matrix[K, V]) bool {
	return m.s.equal(other.s)
}

// Scale returns a matrix whose cells are m's occupied cells multiplied by k.
// Products equal to the default are not stored. Unoccupied cells stay at the
// default.
func (m *Matrix[K, V]) Scale(k V) *Matrix[K, V] {
	res := newStore[K, V](m.s.def, &m.options)
	it := newIterItemStack(m.s.tree.root)
	for item := it.next(); item != nil; item = it.next() {
		res.set(item.key, item.value*k)
	}
	return &Matrix[K, V]{s: res, options: m.options}
}

// ScaleInPlace multiplies every occupied cell of m by k, freeing cells whose
// product is the default.
func (m *Matrix[K, V]) ScaleInPlace(k V) {
	m.s.replace(m.Scale(k).s)
}

// Add returns the element-wise sum of m and other. Every coordinate
// occupied in either matrix holds m.Get(c)+other.Get(c). The result has m's
// default, and cells occupied in neither matrix read as that default, not
// as the sum of both defaults. Both matrices must have the same Shape, or
// ErrDimensionMismatch is returned.
func (m *Matrix[K, V]) Add(other *Matrix[K, V]) (*Matrix[K, V], error) {
	if mine, theirs := m.Shape(), other.Shape(); mine != theirs {
		return nil, fmt.Errorf("add: %w: %v vs %v", ErrDimensionMismatch, mine, theirs)
	}
	res := newStore[K, V](m.s.def, &m.options)
	m.s.union(other.s, func(c K, v, otherV V) {
		res.set(c, v+otherV)
	})
	return &Matrix[K, V]{s: res, options: m.options}, nil
}

// AddInPlace adds other to m element-wise, as Add does. On error m is
// unchanged.
func (m *Matrix[K, V]) AddInPlace(other *Matrix[K, V]) error {
	sum, err := m.Add(other)
	if err != nil {
		return err
	}
	m.s.replace(sum.s)
	return nil
}

// Diff invokes f for every coordinate occupied in m or old whose value
// differs between them, in coordinate order. Each side is read through its
// default. The iteration stops if f returns keepGoing==false or an error,
// and the error is returned. Comparing a matrix with an earlier Clone of
// itself only visits what changed since.
func (m *Matrix[K, V]) Diff(old *Matrix[K, V], f func(c K, value, oldValue V) (keepGoing bool, err error)) error {
	return m.s.tree.diff(old.s.tree, func(added, removed bool, key K, addedValue, removedValue V) (bool, error) {
		if added && !removed {
			removedValue = old.s.def
		} else if removed && !added {
			addedValue = m.s.def
		}
		if addedValue == removedValue {
			return true, nil
		}
		return f(key, addedValue, removedValue)
	})
}

// Digest returns a content hash of m's occupied cells. Matrices with the
// same branch factor holding the same cells have the same digest, no matter
// the order the cells were written in.
func (m *Matrix[K, V]) Digest() Digest {
	return m.s.tree.root.digest(m.options.DigestCache)
}
