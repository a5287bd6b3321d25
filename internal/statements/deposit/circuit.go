package deposit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"

	"shieldedpool/internal/statements/merklepath"
)

// Circuit proves a single-leaf insertion: the claimed position was EMPTY
// under oldRoot, and newRoot is exactly oldRoot with that one leaf
// replaced by the commitment. Reusing the same path and index for both
// root checks is what pins the transition to one correctly-positioned
// update.
type Circuit struct {
	// Public
	OldRoot    frontend.Variable `gnark:",public"`
	NewRoot    frontend.Variable `gnark:",public"`
	Commitment frontend.Variable `gnark:",public"`
	LeafIndex  frontend.Variable `gnark:",public"`

	// Private
	Id      frontend.Variable
	R       frontend.Variable
	OldPath []frontend.Variable
}

// NewCircuit returns a circuit shell for a tree of the given depth.
func NewCircuit(depth int) *Circuit {
	return &Circuit{OldPath: make([]frontend.Variable, depth)}
}

func (c *Circuit) Define(api frontend.API) error {
	// (1) Commitment opens to the deposit secrets.
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	hasher.Write(c.Id, c.R)
	api.AssertIsEqual(c.Commitment, hasher.Sum())

	// The decomposition also range-checks the index against 2^D.
	bits := api.ToBinary(c.LeafIndex, len(c.OldPath))

	// (2) The claimed position was EMPTY under the old root.
	oldRoot, err := merklepath.RootFromPath(api, 0, bits, c.OldPath)
	if err != nil {
		return err
	}
	api.AssertIsEqual(c.OldRoot, oldRoot)

	// (3) The new root is the old tree with only that leaf replaced.
	newRoot, err := merklepath.RootFromPath(api, c.Commitment, bits, c.OldPath)
	if err != nil {
		return err
	}
	api.AssertIsEqual(c.NewRoot, newRoot)

	return nil
}
