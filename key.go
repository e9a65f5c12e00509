package sparse

import (
	"encoding/binary"
	"hash/crc64"
)

// Coordinate is the set of key shapes a Matrix can be addressed by. The
// array length is the matrix's dimensionality, fixed by the type argument.
// Axis 0 is the first (most significant) component.
type Coordinate interface {
	~[1]uint | ~[2]uint | ~[3]uint | ~[4]uint | ~[5]uint | ~[6]uint | ~[7]uint | ~[8]uint
}

// Coordinates for the common ranks.
type (
	Coord1 = [1]uint
	Coord2 = [2]uint
	Coord3 = [3]uint
)

var crcTable *crc64.Table = crc64.MakeTable(crc64.ECMA)

// rank returns the number of axes of K.
func rank[K Coordinate]() int {
	var k K
	return len(k)
}

// compareCoords returns -1 if a sorts before b, 1 if after, and 0 if they are
// the same cell. Order is lexicographic, axis 0 major.
func compareCoords[K Coordinate](a, b K) int {
	for i := 0; i < len(a); i++ {
		if a[i] < b[i] {
			return -1
		} else if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

func appendCoord[K Coordinate](buf []byte, k K) []byte {
	for i := 0; i < len(k); i++ {
		buf = binary.AppendUvarint(buf, uint64(k[i]))
	}
	return buf
}

// coordLayer deterministically computes the ideal layer (distance from
// leaves) of a key in a tree with the given branch factor.
func coordLayer[K Coordinate](k K, branchFactor uint) uint8 {
	var buf [8 * binary.MaxVarintLen64]byte
	return uintLayer(crc64.Checksum(appendCoord(buf[:0], k), crcTable), branchFactor)
}

func uintLayer(v uint64, branchFactor uint) uint8 {
	layer := uint8(0)
	for ; v != 0 && v%uint64(branchFactor) == 0; layer++ {
		v /= uint64(branchFactor)
	}
	return layer
}

// coordOf returns the coordinate starting with the given components, with
// every remaining axis 0.
func coordOf[K Coordinate](components ...uint) K {
	var c K
	for i, v := range components {
		c[i] = v
	}
	return c
}
