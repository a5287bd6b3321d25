// Package pool implements a shielded-pool asset transfer protocol.
//
// Overview:
//   - Depositors commit funds into a shared anonymity set represented by a
//     fixed-depth append-only Merkle tree of commitments
//   - Withdrawers prove membership of their commitment under the current
//     root without revealing which leaf they own (Groth16, BW6-761)
//   - A nullifier, revealed on withdrawal, blocks spending the same
//     deposit twice
//
// Security Model:
//   - MiMC over the BW6-761 scalar field for commitments and tree
//     compression; the identical hash runs inside both constraint systems
//   - Commitments C = MiMC(id, r) are hiding and binding; the nullifier is
//     the deposit identity id, never linkable to C without knowing id
//   - All randomness comes from crypto/rand via gnark-crypto
//
// Usage:
//   - NewTree/NewLedger/NewWallet build per-participant and global state
//   - CreateDeposit and CreateWithdraw produce proofs against a tree
//     mirror; Ledger.AcceptDeposit and Ledger.AcceptWithdraw gate the
//     authoritative state transitions on proof verification
package pool
