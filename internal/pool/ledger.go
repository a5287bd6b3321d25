// ledger.go - Serialized ledger state machine for the shielded pool.
//
// The Ledger holds the authoritative (root, nextIndex, spent-set) triple
// and gates every transition on proof acceptance. It is the single point
// of global ordering: of two deposits racing on the same old root exactly
// one commits and the other fails StaleRoot; of two withdrawals racing on
// the same nullifier exactly one commits and the other fails
// NullifierReused.
//
// Proof verification (the expensive step) runs outside the lock; the
// locked section is a brief commit-or-abort check against current state.
// Verification and mutation are all-or-nothing — there is no
// verified-but-not-committed intermediate state.

package pool

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sync"

	"shieldedpool/internal/logging"
	"shieldedpool/internal/statements/deposit"
	"shieldedpool/internal/statements/withdraw"
)

// Verifier is the proof-system contract the ledger consumes: given a
// transaction's proof and public inputs, accept or reject. The production
// implementation is GrothVerifier.
type Verifier interface {
	VerifyDeposit(tx *deposit.Tx) error
	VerifyWithdraw(tx *withdraw.Tx) error
}

// Ledger is the append-only pool state machine.
type Ledger struct {
	mu        sync.Mutex
	depth     int
	root      *big.Int
	nextIndex uint64
	spent     map[string]struct{}
	// commitments in insertion order, for participants rebuilding a mirror
	commitments []*big.Int
	verifier    Verifier
}

// NewLedger creates a ledger over an all-EMPTY tree of the given depth.
func NewLedger(depth int, verifier Verifier) *Ledger {
	return &Ledger{
		depth:    depth,
		root:     EmptyRoot(depth),
		spent:    make(map[string]struct{}),
		verifier: verifier,
	}
}

// Depth returns the pool's tree depth.
func (l *Ledger) Depth() int { return l.depth }

// Root returns the current authoritative root.
func (l *Ledger) Root() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.root)
}

// NextIndex returns the next free leaf position.
func (l *Ledger) NextIndex() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextIndex
}

// IsSpent reports whether the nullifier is already in the spent set.
func (l *Ledger) IsSpent(nullifier *big.Int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.spent[nullifier.String()]
	return ok
}

// Commitments returns the inserted commitments in leaf order.
func (l *Ledger) Commitments() []*big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*big.Int, len(l.commitments))
	for i, cm := range l.commitments {
		out[i] = new(big.Int).Set(cm)
	}
	return out
}

// AcceptDeposit verifies an insertion proof and, on acceptance, atomically
// advances root and nextIndex. Failure modes: ErrInvalidProof,
// ErrStaleRoot (caller should refetch and rebuild), ErrCapacityExceeded.
func (l *Ledger) AcceptDeposit(tx *deposit.Tx) error {
	if err := l.verifier.VerifyDeposit(tx); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.root.Cmp(tx.OldRoot) != 0 {
		return ErrStaleRoot
	}
	if l.nextIndex >= uint64(1)<<uint(l.depth) || tx.LeafIndex != l.nextIndex {
		return ErrCapacityExceeded
	}

	l.root = new(big.Int).Set(tx.NewRoot)
	l.nextIndex++
	l.commitments = append(l.commitments, new(big.Int).Set(tx.Commitment))

	logging.Logger().Info().
		Uint64("index", tx.LeafIndex).
		Str("root", l.root.String()).
		Msg("deposit accepted")
	return nil
}

// AcceptWithdraw verifies a membership proof and, on acceptance, atomically
// records the nullifier as spent. Failure modes: ErrInvalidProof,
// ErrStaleRoot, ErrNullifierReused. The spent set is monotone — nothing is
// ever removed.
func (l *Ledger) AcceptWithdraw(tx *withdraw.Tx) error {
	if err := l.verifier.VerifyWithdraw(tx); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.root.Cmp(tx.Root) != 0 {
		return ErrStaleRoot
	}
	key := tx.Nullifier.String()
	if _, ok := l.spent[key]; ok {
		return ErrNullifierReused
	}
	l.spent[key] = struct{}{}

	logging.Logger().Info().
		Str("nullifier", key).
		Msg("withdraw accepted")
	return nil
}

// ledgerSnapshot is the persisted form; scalars are decimal strings.
type ledgerSnapshot struct {
	Depth       int      `json:"depth"`
	Root        string   `json:"root"`
	NextIndex   uint64   `json:"next_index"`
	Spent       []string `json:"spent"`
	Commitments []string `json:"commitments"`
}

// SaveToFile writes the ledger state as JSON, overwriting the file.
func (l *Ledger) SaveToFile(path string) error {
	l.mu.Lock()
	snap := ledgerSnapshot{
		Depth:     l.depth,
		Root:      l.root.String(),
		NextIndex: l.nextIndex,
	}
	for n := range l.spent {
		snap.Spent = append(snap.Spent, n)
	}
	for _, cm := range l.commitments {
		snap.Commitments = append(snap.Commitments, cm.String())
	}
	l.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// LoadLedgerFromFile restores a ledger from a JSON snapshot, reattaching
// the given verifier.
func LoadLedgerFromFile(path string, verifier Verifier) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snap ledgerSnapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, err
	}

	root, ok := new(big.Int).SetString(snap.Root, 10)
	if !ok {
		return nil, fmt.Errorf("pool: malformed root in snapshot")
	}
	l := &Ledger{
		depth:     snap.Depth,
		root:      root,
		nextIndex: snap.NextIndex,
		spent:     make(map[string]struct{}, len(snap.Spent)),
		verifier:  verifier,
	}
	for _, n := range snap.Spent {
		l.spent[n] = struct{}{}
	}
	for _, s := range snap.Commitments {
		cm, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("pool: malformed commitment in snapshot")
		}
		l.commitments = append(l.commitments, cm)
	}
	return l, nil
}
