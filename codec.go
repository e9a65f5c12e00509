package sparse

import (
	"encoding/binary"
	"fmt"

	"github.com/minio/blake2b-simd"
)

// Digest is a content hash of a matrix's occupied cells.
type Digest [32]byte

func (d Digest) String() string {
	return fmt.Sprintf("%x", d[:])
}

func appendLength(buf []byte, n int) []byte {
	return binary.AppendUvarint(buf, uint64(n))
}

// marshalNode encodes a node's entries followed by the digests of its
// children; a missing child is encoded as a zero length.
func marshalNode[K Coordinate, V comparable](buf []byte, n *node[K, V], childDigest func(*node[K, V]) Digest) []byte {
	buf = appendLength(buf, len(n.Key))
	for i, key := range n.Key {
		buf = appendCoord(buf, key)
		value := fmt.Append(nil, n.Value[i])
		buf = appendLength(buf, len(value))
		buf = append(buf, value...)
	}
	for _, link := range n.Link {
		if link == nil {
			buf = appendLength(buf, 0)
			continue
		}
		d := childDigest(link)
		buf = appendLength(buf, len(d))
		buf = append(buf, d[:]...)
	}
	return buf
}

// digest hashes the subtree under n. Only shared nodes are cached, since
// unshared ones may still be modified in place.
func (n *node[K, V]) digest(cache DigestCache) Digest {
	if cache != nil && n.shared {
		if d, ok := cache.Get(n); ok {
			return d.(Digest)
		}
	}
	encoded := marshalNode(nil, n, func(child *node[K, V]) Digest {
		return child.digest(cache)
	})
	d := Digest(blake2b.Sum256(encoded))
	if cache != nil && n.shared {
		cache.Add(n, d)
	}
	return d
}
