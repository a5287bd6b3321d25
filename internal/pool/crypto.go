// crypto.go - Field hash primitive and commitment/nullifier scheme.
//
// All protocol values are elements of the BW6-761 scalar field, carried as
// *big.Int and reduced through fr.Element before hashing. HashScalars must
// match, bit for bit, the MiMC gadget used inside the deposit and withdraw
// statements: both sides hash canonical big-endian field elements.

package pool

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"
)

// HashScalars computes MiMC over the given field elements.
// Inputs are reduced to canonical fr encoding so that e.g. a zero input
// contributes a full zero block, exactly as the in-circuit hasher sees it.
func HashScalars(inputs ...*big.Int) *big.Int {
	h := mimc.NewMiMC()
	for _, in := range inputs {
		var e fr.Element
		e.SetBigInt(in)
		b := e.Bytes()
		h.Write(b[:])
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// Commit derives the public commitment for a deposit secret:
// C = MiMC(id, r).
func Commit(id, r *big.Int) *big.Int {
	return HashScalars(id, r)
}

// DeriveNullifier maps a deposit identity to its nullifier.
//
// The minimal scheme is the identity mapping: the withdraw statement
// reveals id itself, and unlinkability to the deposit rests on the hiding
// of C = MiMC(id, r). The mapping must stay deterministic — two
// withdrawals of the same deposit must collide in the spent set.
func DeriveNullifier(id *big.Int) *big.Int {
	return new(big.Int).Set(id)
}

// RandomScalar samples a uniformly random field element using crypto/rand.
func RandomScalar() (*big.Int, error) {
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		return nil, err
	}
	return e.BigInt(new(big.Int)), nil
}

// Modulus returns the order of the scalar field.
func Modulus() *big.Int {
	return fr.Modulus()
}
