// Package merklepath provides the in-circuit authentication-path check
// shared by the deposit and withdraw statements. It is the circuit half of
// pool.RecomputeRoot: both must combine leaf and siblings with the same
// per-level left/right rule or proofs stop verifying silently.
package merklepath

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// RootFromPath recomputes a root from a leaf, its index bits (little
// endian, one per level) and the sibling hashes. Bit 0 places the running
// node on the left: MiMC(node, sibling); bit 1 on the right:
// MiMC(sibling, node).
func RootFromPath(api frontend.API, leaf frontend.Variable, indexBits, siblings []frontend.Variable) (frontend.Variable, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, err
	}
	cur := leaf
	for i := range siblings {
		left := api.Select(indexBits[i], siblings[i], cur)
		right := api.Select(indexBits[i], cur, siblings[i])
		h.Reset()
		h.Write(left, right)
		cur = h.Sum()
	}
	return cur, nil
}
