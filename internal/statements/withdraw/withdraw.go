// withdraw.go - Witness construction, proving and verification for the
// withdraw (membership) statement.

package withdraw

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
)

// Tx is a withdraw transaction. Root and Nullifier are the only public
// inputs; no index, path or commitment ever leaves the prover.
type Tx struct {
	Root      *big.Int `json:"root"`
	Nullifier *big.Int `json:"nullifier"`
	Proof     []byte   `json:"proof"`
}

// Prove builds the full witness and produces a membership proof for the
// deposit whose commitment is MiMC(nullifier, r), sitting at leafIndex
// with the given path under root.
func Prove(ccs constraint.ConstraintSystem, pk groth16.ProvingKey,
	root, nullifier, r *big.Int, leafIndex uint64, path []*big.Int) (*Tx, error) {

	assignment := NewCircuit(len(path))
	assignment.Root = root
	assignment.Nullifier = nullifier
	assignment.R = r
	assignment.LeafIndex = leafIndex
	for i, sib := range path {
		assignment.Path[i] = sib
	}

	w, err := frontend.NewWitness(assignment, ecc.BW6_761.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}
	proof, err := groth16.Prove(ccs, pk, w)
	if err != nil {
		return nil, fmt.Errorf("proof generation failed: %w", err)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("proof marshaling failed: %w", err)
	}

	return &Tx{
		Root:      new(big.Int).Set(root),
		Nullifier: new(big.Int).Set(nullifier),
		Proof:     buf.Bytes(),
	}, nil
}

// Verify checks the transaction's proof against its public inputs.
func Verify(tx *Tx, vk groth16.VerifyingKey, depth int) error {
	public := NewCircuit(depth)
	public.Root = tx.Root
	public.Nullifier = tx.Nullifier

	w, err := frontend.NewWitness(public, ecc.BW6_761.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("public witness creation failed: %w", err)
	}
	proof := groth16.NewProof(ecc.BW6_761)
	if _, err := proof.ReadFrom(bytes.NewReader(tx.Proof)); err != nil {
		return fmt.Errorf("proof unmarshaling failed: %w", err)
	}
	if err := groth16.Verify(proof, vk, w); err != nil {
		return fmt.Errorf("proof verification failed: %w", err)
	}
	return nil
}
