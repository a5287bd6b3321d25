// transfer.go - Deposit and withdraw orchestration against the local tree
// mirror.
//
// Steps for a deposit:
//  1. Derive the commitment from a fresh secret
//  2. Capture the authentication path of the next EMPTY leaf (this exact
//     path proves both the before- and after-roots)
//  3. Insert the commitment into the mirror
//  4. Build the insertion witness and prove
//  5. Return the transaction plus the owner's private Note record
//
// Steps for a withdraw:
//  1. Check the note's cached path against the mirror version (stale
//     paths are a checked error, not a silent proof failure)
//  2. Build the membership witness with root and nullifier public
//  3. Prove and return the transaction

package pool

import (
	"fmt"

	"shieldedpool/internal/statements/deposit"
	"shieldedpool/internal/statements/withdraw"
	"shieldedpool/internal/zkp"
)

// CreateDeposit commits a fresh secret to the pool via the participant's
// tree mirror: it inserts the commitment locally and builds the proof that
// takes the ledger from the mirror's pre-insert root to its post-insert
// root. The returned Note is the withdrawer's private record.
func CreateDeposit(tree *Tree, sec *Secret, ps *zkp.ProvingSystem) (*deposit.Tx, *Note, error) {
	cm := sec.Commitment()

	// Path of the still-EMPTY slot, before the insertion being proven.
	oldPath, err := tree.AppendPath()
	if err != nil {
		return nil, nil, err
	}
	index, err := tree.Insert(cm)
	if err != nil {
		return nil, nil, err
	}
	newRoot := tree.Root()

	tx, err := deposit.Prove(ps.CCS, ps.PK, sec.Id, sec.R, cm,
		oldPath.Root, newRoot, index, oldPath.Siblings)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnsatisfiableWitness, err)
	}

	note := &Note{Secret: sec, Cm: cm, Index: index}
	if err := note.RefreshPath(tree); err != nil {
		return nil, nil, err
	}
	return tx, note, nil
}

// CreateWithdraw builds the membership proof spending the given note. The
// note's cached path must match the mirror's current version; a stale path
// fails with ErrStalePath and the caller refreshes via Note.RefreshPath.
func CreateWithdraw(tree *Tree, note *Note, ps *zkp.ProvingSystem) (*withdraw.Tx, error) {
	if note.PathVersion != tree.Version() {
		return nil, ErrStalePath
	}

	tx, err := withdraw.Prove(ps.CCS, ps.PK, note.PathRoot,
		note.Secret.Nullifier(), note.Secret.R, note.Index, note.Siblings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsatisfiableWitness, err)
	}
	return tx, nil
}
