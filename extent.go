package sparse

// extents tracks, for every axis, how many occupied cells use each
// coordinate value, so that per-axis maxima stay exact as cells come and go.
// Key order alone cannot provide them: the lexicographically last key only
// bounds axis 0.
//
// The counts are kept in trees so that the maximum is found along the
// rightmost path and a clone shares them copy-on-write.
type extents[K Coordinate] struct {
	counts []*tree[Coord1, int]
}

func newExtents[K Coordinate]() extents[K] {
	e := extents[K]{counts: make([]*tree[Coord1, int], rank[K]())}
	for i := range e.counts {
		e.counts[i] = newTree[Coord1, int](DefaultBranchFactor, false)
	}
	return e
}

func (e *extents[K]) add(c K) {
	for axis, counts := range e.counts {
		v := Coord1{c[axis]}
		n, _ := counts.get(v)
		counts.insert(v, n+1)
	}
}

func (e *extents[K]) remove(c K) {
	for axis, counts := range e.counts {
		v := Coord1{c[axis]}
		n, ok := counts.get(v)
		switch {
		case !ok:
		case n > 1:
			counts.insert(v, n-1)
		default:
			counts.delete(v)
		}
	}
}

// extent is one more than the largest coordinate in use along axis, or 0
// when no cell is occupied.
func (e *extents[K]) extent(axis int) uint {
	if axis < 0 || axis >= len(e.counts) {
		return 0
	}
	top, ok := e.counts[axis].max()
	if !ok {
		return 0
	}
	return top[0] + 1
}

func (e *extents[K]) clone() extents[K] {
	e2 := extents[K]{counts: make([]*tree[Coord1, int], len(e.counts))}
	for i, counts := range e.counts {
		e2.counts[i] = counts.clone()
	}
	return e2
}
