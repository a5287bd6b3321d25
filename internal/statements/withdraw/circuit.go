package withdraw

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"

	"shieldedpool/internal/statements/merklepath"
)

// Circuit proves knowledge of a deposit under the current root: some leaf
// equals MiMC(nullifier, r), at a position the statement never reveals.
// The commitment is recomputed internally and never surfaces as a public
// input — only the root (already public ledger state) and the nullifier
// leave the circuit, which is the anonymity property.
type Circuit struct {
	// Public
	Root      frontend.Variable `gnark:",public"`
	Nullifier frontend.Variable `gnark:",public"`

	// Private
	R         frontend.Variable
	LeafIndex frontend.Variable
	Path      []frontend.Variable
}

// NewCircuit returns a circuit shell for a tree of the given depth.
func NewCircuit(depth int) *Circuit {
	return &Circuit{Path: make([]frontend.Variable, depth)}
}

func (c *Circuit) Define(api frontend.API) error {
	// (1) Reconstruct the commitment from the revealed identity and the
	// private blinding factor.
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	hasher.Write(c.Nullifier, c.R)
	commitment := hasher.Sum()

	// (2) That commitment sits somewhere under the claimed root.
	bits := api.ToBinary(c.LeafIndex, len(c.Path))
	root, err := merklepath.RootFromPath(api, commitment, bits, c.Path)
	if err != nil {
		return err
	}
	api.AssertIsEqual(c.Root, root)

	return nil
}
