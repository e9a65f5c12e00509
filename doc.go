/*
Package sparse provides a sparse matrix of fixed dimensionality that
stores only the cells whose value differs from a configured default.
Reading any other cell yields the default, and writing the default to a
cell frees it, so the storage used is proportional to the number of
occupied cells.

Dimensionality

The coordinate type fixes the number of axes at compile time: a
Matrix[Coord2, int] is two-dimensional, a Matrix[[5]uint, float64] has
five axes. Coordinates are ordered lexicographically with axis 0 most
significant, and that is the order in which occupied cells are iterated.

Addressing

Cells can be addressed with a whole coordinate (Get, Set) or one axis at a
time through a Proxy:

	m := sparse.New[sparse.Coord2](-1, nil)
	m.Index(2).Index(2).Write(5)
	v, err := m.Index(2).Index(2).Read()

Storage

Cells are kept in an in-memory Merkle Search Tree, as described in
"Merkle Search Trees: Efficient State-Based CRDTs in Open Networks", by
Alex Auvolat and François Taïani, 2019
(https://hal.inria.fr/hal-02303490/document). A cell's layer in the tree
is derived from a hash of its coordinate, so the tree's shape depends only
on which cells are occupied. That makes Clone cheap (nodes are shared and
copied on write), lets Equal and Diff skip subtrees two versions share,
and gives every set of cells a stable Digest.

Concurrency

A Matrix is not safe for concurrent use; guard each instance with a lock
if it is shared. Clones are independent and can be handed to other
goroutines.
*/
package sparse
