package sparse

// store is the single source of truth for a matrix: an ordered tree of the
// occupied cells, the default value every other cell implicitly holds, and
// per-axis extents. A default value is never stored.
type store[K Coordinate, V Number] struct {
	tree    *tree[K, V]
	def     V
	extents extents[K]
	// mods counts mutations, so iterators can notice them.
	mods uint64
}

func newStore[K Coordinate, V Number](def V, options *Options) *store[K, V] {
	var branchFactor uint
	var debug bool
	if options != nil {
		branchFactor = options.BranchFactor
		debug = options.Debug
	}
	return &store[K, V]{
		tree:    newTree[K, V](branchFactor, debug),
		def:     def,
		extents: newExtents[K](),
	}
}

func (s *store[K, V]) get(c K) V {
	if v, ok := s.tree.get(c); ok {
		return v
	}
	return s.def
}

// set stores v at c, or removes c when v is the default value.
func (s *store[K, V]) set(c K, v V) {
	if v == s.def {
		if s.tree.delete(c) {
			s.extents.remove(c)
			s.mods++
		}
		return
	}
	if s.tree.insert(c, v) {
		s.extents.add(c)
	}
	s.mods++
}

func (s *store[K, V]) count() int {
	return int(s.tree.size)
}

func (s *store[K, V]) clear() {
	if s.tree.size == 0 {
		return
	}
	s.tree.clear()
	s.extents = newExtents[K]()
	s.mods++
}

func (s *store[K, V]) equal(other *store[K, V]) bool {
	return s.tree.equal(other.tree)
}

func (s *store[K, V]) clone() *store[K, V] {
	return &store[K, V]{
		tree:    s.tree.clone(),
		def:     s.def,
		extents: s.extents.clone(),
	}
}

// replace takes over the contents of other, which must not be used again.
func (s *store[K, V]) replace(other *store[K, V]) {
	s.tree = other.tree
	s.extents = other.extents
	s.mods++
}

// union calls f for every coordinate occupied in s or other, in key order,
// with each side's value read through its default.
func (s *store[K, V]) union(other *store[K, V], f func(c K, v, otherV V)) {
	mine := newIterItemStack(s.tree.root)
	theirs := newIterItemStack(other.tree.root)
	a, b := mine.next(), theirs.next()
	for a != nil || b != nil {
		switch {
		case b == nil || (a != nil && compareCoords(a.key, b.key) < 0):
			f(a.key, a.value, other.def)
			a = mine.next()
		case a == nil || compareCoords(a.key, b.key) > 0:
			f(b.key, s.def, b.value)
			b = theirs.next()
		default:
			f(a.key, a.value, b.value)
			a, b = mine.next(), theirs.next()
		}
	}
}
