package sparse

import "errors"

var (
	// ErrDimensionMismatch is returned when combining matrices whose extents differ.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrIncompleteIndex is returned by a Proxy that was indexed on fewer axes than the matrix has.
	ErrIncompleteIndex = errors.New("incomplete index")
	// ErrTooManyIndices is returned by a Proxy that was indexed on more axes than the matrix has.
	ErrTooManyIndices = errors.New("too many indices")
	// ErrRank is returned when a constructor needs more axes than the coordinate type has.
	ErrRank = errors.New("unsupported rank")
	// ErrConcurrentModification stops an iteration whose matrix was modified.
	ErrConcurrentModification = errors.New("matrix modified during iteration")
)
