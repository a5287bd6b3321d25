// errors.go - Error taxonomy for the shielded pool.
//
// Every failure a caller can act on maps to one of these sentinels; use
// errors.Is to classify wrapped errors. Only ErrStaleRoot is worth a
// retry (refetch the root, rebuild the proof); everything else is
// permanent for the attempted operation.

package pool

import "errors"

var (
	// ErrCapacityExceeded means the tree (or ledger) has no free leaf left.
	ErrCapacityExceeded = errors.New("pool: capacity exceeded")

	// ErrStaleRoot means the caller's view of the root is outdated.
	ErrStaleRoot = errors.New("pool: stale root")

	// ErrNullifierReused means the nullifier is already in the spent set.
	ErrNullifierReused = errors.New("pool: nullifier already spent")

	// ErrInvalidProof means proof verification rejected the transaction.
	ErrInvalidProof = errors.New("pool: invalid proof")

	// ErrIndexOutOfRange means the requested leaf index is not provable.
	ErrIndexOutOfRange = errors.New("pool: leaf index out of range")

	// ErrStalePath means a cached authentication path was computed against
	// an older tree version and must be refreshed before proving.
	ErrStalePath = errors.New("pool: stale authentication path")

	// ErrUnsatisfiableWitness means the supplied private data is
	// inconsistent and no proof exists for it.
	ErrUnsatisfiableWitness = errors.New("pool: unsatisfiable witness")
)

// Retryable reports whether the operation may succeed after refetching the
// current root and rebuilding the proof.
func Retryable(err error) bool {
	return errors.Is(err, ErrStaleRoot)
}
