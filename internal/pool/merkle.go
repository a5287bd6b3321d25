// merkle.go - Sparse, append-only Merkle tree mirror.
//
// The tree has a fixed depth D and 2^D conceptual leaves, all EMPTY (zero)
// until inserted. Only written nodes are stored; untouched subtrees fall
// back to a precomputed zero-subtree hash chain. Each mutation bumps a
// version counter so cached authentication paths can be checked for
// staleness instead of silently proving against the wrong root.
//
// Insert is serialized internally; Path and the read-only accessors take a
// shared lock and are safe against a stable snapshot.

package pool

import (
	"math/big"
	"sync"
)

// Empty is the sentinel value of an unoccupied leaf.
var Empty = big.NewInt(0)

// Path is an authentication path: the D sibling hashes needed to recompute
// a root from one leaf, tagged with the root and tree version it was
// captured against.
type Path struct {
	Index    uint64     `json:"index"`
	Leaf     *big.Int   `json:"leaf"`
	Siblings []*big.Int `json:"siblings"`
	Root     *big.Int   `json:"root"`
	Version  uint64     `json:"version"`
}

// Tree is a participant's off-chain mirror of the pool's commitment set.
// It must be kept consistent with the ledger's authoritative root;
// divergence is a correctness bug, not a normal state.
type Tree struct {
	mu        sync.RWMutex
	depth     int
	nextIndex uint64
	version   uint64
	// levels[0] holds leaves, levels[depth] the root; only written nodes
	// are present, everything else is zeroHashes[level].
	levels     []map[uint64]*big.Int
	zeroHashes []*big.Int
}

// NewTree creates an all-EMPTY tree of the given depth.
func NewTree(depth int) *Tree {
	levels := make([]map[uint64]*big.Int, depth+1)
	for i := range levels {
		levels[i] = make(map[uint64]*big.Int)
	}
	return &Tree{
		depth:      depth,
		levels:     levels,
		zeroHashes: zeroHashChain(depth),
	}
}

// zeroHashChain returns z[0..depth] with z[0] = Empty and
// z[i] = MiMC(z[i-1], z[i-1]).
func zeroHashChain(depth int) []*big.Int {
	z := make([]*big.Int, depth+1)
	z[0] = new(big.Int).Set(Empty)
	for i := 1; i <= depth; i++ {
		z[i] = HashScalars(z[i-1], z[i-1])
	}
	return z
}

// EmptyRoot returns the root of an all-EMPTY tree of the given depth.
func EmptyRoot(depth int) *big.Int {
	chain := zeroHashChain(depth)
	return chain[depth]
}

// Depth returns the fixed tree depth D.
func (t *Tree) Depth() int { return t.depth }

// Capacity returns the total leaf count 2^D.
func (t *Tree) Capacity() uint64 { return uint64(1) << uint(t.depth) }

// NextIndex returns the next free leaf position.
func (t *Tree) NextIndex() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextIndex
}

// Version returns the mutation counter; it increments on every Insert.
func (t *Tree) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Root returns the current root hash.
func (t *Tree) Root() *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rootLocked()
}

func (t *Tree) rootLocked() *big.Int {
	if r, ok := t.levels[t.depth][0]; ok {
		return new(big.Int).Set(r)
	}
	return new(big.Int).Set(t.zeroHashes[t.depth])
}

func (t *Tree) nodeLocked(level int, idx uint64) *big.Int {
	if v, ok := t.levels[level][idx]; ok {
		return v
	}
	return t.zeroHashes[level]
}

// Insert writes value at the next free index, recomputes the D ancestor
// hashes up to the root, and returns the assigned index. It fails with
// ErrCapacityExceeded once all 2^D leaves are occupied.
//
// Every Insert invalidates previously captured paths for leaves sharing an
// ancestor with the new one; holders must refresh before proving.
func (t *Tree) Insert(value *big.Int) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nextIndex >= t.Capacity() {
		return 0, ErrCapacityExceeded
	}
	index := t.nextIndex

	t.levels[0][index] = new(big.Int).Set(value)
	idx := index
	for lvl := 0; lvl < t.depth; lvl++ {
		parent := idx / 2
		left := t.nodeLocked(lvl, parent*2)
		right := t.nodeLocked(lvl, parent*2+1)
		t.levels[lvl+1][parent] = HashScalars(left, right)
		idx = parent
	}

	t.nextIndex++
	t.version++
	return index, nil
}

// Path produces the current authentication path for an inserted leaf. It
// fails with ErrIndexOutOfRange for indices at or beyond the next free
// position.
func (t *Tree) Path(index uint64) (*Path, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if index >= t.nextIndex {
		return nil, ErrIndexOutOfRange
	}
	return t.pathLocked(index), nil
}

// AppendPath captures the authentication path of the next free (still
// EMPTY) leaf. This is the "old path" the deposit statement proves both
// the before- and after-roots from, so it must be taken before the Insert
// it accompanies.
func (t *Tree) AppendPath() (*Path, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.nextIndex >= t.Capacity() {
		return nil, ErrCapacityExceeded
	}
	return t.pathLocked(t.nextIndex), nil
}

func (t *Tree) pathLocked(index uint64) *Path {
	siblings := make([]*big.Int, t.depth)
	idx := index
	for lvl := 0; lvl < t.depth; lvl++ {
		siblings[lvl] = new(big.Int).Set(t.nodeLocked(lvl, idx^1))
		idx /= 2
	}
	return &Path{
		Index:    index,
		Leaf:     new(big.Int).Set(t.nodeLocked(0, index)),
		Siblings: siblings,
		Root:     t.rootLocked(),
		Version:  t.version,
	}
}

// RecomputeRoot walks from a leaf to the root, combining with the path
// siblings according to the index bit at each level: bit 0 means the leaf
// is the left child, MiMC(leaf, sibling); bit 1 the right, MiMC(sibling,
// leaf). This is the native half of the single definition of "valid path";
// the merklepath gadget enforces the identical rule in-circuit.
func RecomputeRoot(leaf *big.Int, index uint64, siblings []*big.Int) *big.Int {
	cur := new(big.Int).Set(leaf)
	for lvl, sib := range siblings {
		if (index>>uint(lvl))&1 == 0 {
			cur = HashScalars(cur, sib)
		} else {
			cur = HashScalars(sib, cur)
		}
	}
	return cur
}
