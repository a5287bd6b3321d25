// deposit.go - Witness construction, proving and verification for the
// deposit (insertion) statement.

package deposit

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
)

// Tx is a deposit transaction: the Groth16 proof plus the exact public
// inputs the statement was proven against.
type Tx struct {
	OldRoot    *big.Int `json:"old_root"`
	NewRoot    *big.Int `json:"new_root"`
	Commitment *big.Int `json:"commitment"`
	LeafIndex  uint64   `json:"leaf_index"`
	Proof      []byte   `json:"proof"`
}

// Prove builds the full witness and produces an insertion proof. oldPath
// must be the authentication path of the still-EMPTY leaf at leafIndex,
// captured before the insertion being proven.
func Prove(ccs constraint.ConstraintSystem, pk groth16.ProvingKey,
	id, r, commitment, oldRoot, newRoot *big.Int, leafIndex uint64, oldPath []*big.Int) (*Tx, error) {

	assignment := NewCircuit(len(oldPath))
	assignment.OldRoot = oldRoot
	assignment.NewRoot = newRoot
	assignment.Commitment = commitment
	assignment.LeafIndex = leafIndex
	assignment.Id = id
	assignment.R = r
	for i, sib := range oldPath {
		assignment.OldPath[i] = sib
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
		OldRoot:    new(big.Int).Set(oldRoot),
		NewRoot:    new(big.Int).Set(newRoot),
		Commitment: new(big.Int).Set(commitment),
		LeafIndex:  leafIndex,
		Proof:      buf.Bytes(),
	}, nil
}

// Verify checks the transaction's proof against its public inputs.
func Verify(tx *Tx, vk groth16.VerifyingKey, depth int) error {
	public := NewCircuit(depth)
	public.OldRoot = tx.OldRoot
	public.NewRoot = tx.NewRoot
	public.Commitment = tx.Commitment
	public.LeafIndex = tx.LeafIndex

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
