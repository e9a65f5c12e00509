package sparse

import lru "github.com/hashicorp/golang-lru"

// DigestCache caches the digests of immutable (shared) tree nodes, so that
// digesting a clone only rehashes the paths written since the clone.
// One cache can be shared by any number of matrices.
type DigestCache interface {
	// Add remembers the digest of a node.
	Add(key, value interface{})
	// Get retrieves the digest of a node, if cached.
	Get(key interface{}) (value interface{}, ok bool)
}

// NewDigestCache creates a new LRU-based digest cache of the given size.
func NewDigestCache(size int) DigestCache {
	cache, err := lru.NewARC(size)
	if err != nil {
		panic(err)
	}
	return cache
}
