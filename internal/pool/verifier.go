// verifier.go - Production proof verification for the ledger.

package pool

import (
	"github.com/consensys/gnark/backend/groth16"

	"shieldedpool/internal/statements/deposit"
	"shieldedpool/internal/statements/withdraw"
)

// GrothVerifier checks transactions against the Groth16 verifying keys of
// the two statements, in the same scalar encoding used during proof
// construction.
type GrothVerifier struct {
	Depth      int
	DepositVK  groth16.VerifyingKey
	WithdrawVK groth16.VerifyingKey
}

func (v *GrothVerifier) VerifyDeposit(tx *deposit.Tx) error {
	return deposit.Verify(tx, v.DepositVK, v.Depth)
}

func (v *GrothVerifier) VerifyWithdraw(tx *withdraw.Tx) error {
	return withdraw.Verify(tx, v.WithdrawVK, v.Depth)
}
