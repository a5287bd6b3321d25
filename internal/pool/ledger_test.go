package pool

import (
	"errors"
	"math/big"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"shieldedpool/internal/statements/deposit"
	"shieldedpool/internal/statements/withdraw"
)

// stubVerifier lets ledger tests exercise the state machine without paying
// for Groth16 setup; proof bytes are opaque to the ledger anyway.
type stubVerifier struct {
	depositErr  error
	withdrawErr error
}

func (s *stubVerifier) VerifyDeposit(*deposit.Tx) error   { return s.depositErr }
func (s *stubVerifier) VerifyWithdraw(*withdraw.Tx) error { return s.withdrawErr }

// depositTx builds a structurally consistent deposit transaction by
// replaying a local mirror.
func depositTx(t *testing.T, tree *Tree, sec *Secret) *deposit.Tx {
	t.Helper()
	cm := sec.Commitment()
	before, err := tree.AppendPath()
	require.NoError(t, err)
	index, err := tree.Insert(cm)
	require.NoError(t, err)
	return &deposit.Tx{
		OldRoot:    before.Root,
		NewRoot:    tree.Root(),
		Commitment: cm,
		LeafIndex:  index,
		Proof:      []byte("stub"),
	}
}

func TestLedgerAcceptDeposit(t *testing.T) {
	l := NewLedger(2, &stubVerifier{})
	tree := NewTree(2)
	sec := &Secret{Id: big.NewInt(1), R: big.NewInt(2)}

	tx := depositTx(t, tree, sec)
	require.NoError(t, l.AcceptDeposit(tx))
	require.Equal(t, uint64(1), l.NextIndex())
	require.Zero(t, l.Root().Cmp(tx.NewRoot))
	require.Len(t, l.Commitments(), 1)

	// Replaying the same transition races on an outdated root.
	err := l.AcceptDeposit(tx)
	require.ErrorIs(t, err, ErrStaleRoot)
	require.True(t, Retryable(err))
}

func TestLedgerDepositIndexMismatch(t *testing.T) {
	l := NewLedger(2, &stubVerifier{})
	tree := NewTree(2)
	tx := depositTx(t, tree, &Secret{Id: big.NewInt(1), R: big.NewInt(2)})
	tx.LeafIndex = 3 // not the next free slot
	require.ErrorIs(t, l.AcceptDeposit(tx), ErrCapacityExceeded)
}

func TestLedgerRejectsInvalidProof(t *testing.T) {
	bad := errors.New("verification failed")
	l := NewLedger(2, &stubVerifier{depositErr: bad, withdrawErr: bad})
	tree := NewTree(2)

	tx := depositTx(t, tree, &Secret{Id: big.NewInt(1), R: big.NewInt(2)})
	err := l.AcceptDeposit(tx)
	require.ErrorIs(t, err, ErrInvalidProof)
	require.False(t, Retryable(err))
	// Rejection commits nothing.
	require.Equal(t, uint64(0), l.NextIndex())

	wtx := &withdraw.Tx{Root: l.Root(), Nullifier: big.NewInt(9), Proof: []byte("stub")}
	require.ErrorIs(t, l.AcceptWithdraw(wtx), ErrInvalidProof)
	require.False(t, l.IsSpent(wtx.Nullifier))
}

func TestLedgerAcceptWithdrawAndDoubleSpend(t *testing.T) {
	l := NewLedger(2, &stubVerifier{})
	sec := &Secret{Id: big.NewInt(5), R: big.NewInt(6)}

	tx := &withdraw.Tx{Root: l.Root(), Nullifier: sec.Nullifier(), Proof: []byte("stub")}
	require.NoError(t, l.AcceptWithdraw(tx))
	require.True(t, l.IsSpent(sec.Nullifier()))

	// A second spend with a fresh, valid proof still fails: the nullifier
	// set is monotone.
	tx2 := &withdraw.Tx{Root: l.Root(), Nullifier: sec.Nullifier(), Proof: []byte("fresh stub")}
	err := l.AcceptWithdraw(tx2)
	require.ErrorIs(t, err, ErrNullifierReused)
	require.False(t, Retryable(err))
}

func TestLedgerWithdrawStaleRoot(t *testing.T) {
	l := NewLedger(2, &stubVerifier{})
	tx := &withdraw.Tx{Root: big.NewInt(12345), Nullifier: big.NewInt(1), Proof: []byte("stub")}
	require.ErrorIs(t, l.AcceptWithdraw(tx), ErrStaleRoot)
}

func TestLedgerRacingDeposits(t *testing.T) {
	l := NewLedger(4, &stubVerifier{})
	tree := NewTree(4)
	tx := depositTx(t, tree, &Secret{Id: big.NewInt(1), R: big.NewInt(2)})

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.AcceptDeposit(tx)
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			require.ErrorIs(t, err, ErrStaleRoot)
		}
	}
	require.Equal(t, 1, accepted)
	require.Equal(t, uint64(1), l.NextIndex())
}

func TestLedgerRacingWithdrawals(t *testing.T) {
	l := NewLedger(4, &stubVerifier{})
	tx := &withdraw.Tx{Root: l.Root(), Nullifier: big.NewInt(7), Proof: []byte("stub")}

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.AcceptWithdraw(tx)
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			require.ErrorIs(t, err, ErrNullifierReused)
		}
	}
	require.Equal(t, 1, accepted)
}

func TestLedgerSaveLoad(t *testing.T) {
	l := NewLedger(2, &stubVerifier{})
	tree := NewTree(2)
	require.NoError(t, l.AcceptDeposit(depositTx(t, tree, &Secret{Id: big.NewInt(1), R: big.NewInt(2)})))

	sec := &Secret{Id: big.NewInt(5), R: big.NewInt(6)}
	require.NoError(t, l.AcceptWithdraw(&withdraw.Tx{Root: l.Root(), Nullifier: sec.Nullifier(), Proof: []byte("stub")}))

	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, l.SaveToFile(path))

	loaded, err := LoadLedgerFromFile(path, &stubVerifier{})
	require.NoError(t, err)
	require.Equal(t, l.Depth(), loaded.Depth())
	require.Zero(t, l.Root().Cmp(loaded.Root()))
	require.Equal(t, l.NextIndex(), loaded.NextIndex())
	require.True(t, loaded.IsSpent(sec.Nullifier()))
	require.Len(t, loaded.Commitments(), 1)
}
