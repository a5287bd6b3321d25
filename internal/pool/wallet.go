// wallet.go - Per-participant bookkeeping: owned notes and their state.
//
// A Wallet is the withdrawer's private side of the protocol: deposit
// secrets, commitments, and authentication-path records retrievable by
// the owning secret. It is never shared with the ledger. Persistence is a
// single JSON file per participant.
//
// NOTE: Wallet is not thread-safe by itself; callers serialize access.

package pool

import (
	"encoding/json"
	"fmt"
	"os"
)

// Wallet stores a participant's notes.
type Wallet struct {
	Name  string  `json:"name"`
	Notes []*Note `json:"notes"`
}

// NewWallet creates an empty wallet.
func NewWallet(name string) *Wallet {
	return &Wallet{Name: name}
}

// LoadWallet loads a wallet from a JSON file.
func LoadWallet(path string) (*Wallet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var w Wallet
	if err := json.NewDecoder(f).Decode(&w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Save writes the wallet to a JSON file.
func (w *Wallet) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(w)
}

// AddNote records a freshly deposited note.
func (w *Wallet) AddNote(note *Note) {
	w.Notes = append(w.Notes, note)
}

// UnspentNotes returns the notes not yet marked spent.
func (w *Wallet) UnspentNotes() []*Note {
	var out []*Note
	for _, n := range w.Notes {
		if !n.Spent {
			out = append(out, n)
		}
	}
	return out
}

// MarkSpent flags the note at the given position as consumed.
func (w *Wallet) MarkSpent(i int) error {
	if i < 0 || i >= len(w.Notes) {
		return fmt.Errorf("invalid note index: %d", i)
	}
	w.Notes[i].Spent = true
	return nil
}

// SyncWithLedger marks as spent every note whose nullifier already appears
// in the ledger's spent set. Useful after a restart, or when the same
// secrets were spent from another session.
func (w *Wallet) SyncWithLedger(l *Ledger) {
	for _, n := range w.Notes {
		if n.Spent {
			continue
		}
		if l.IsSpent(n.Secret.Nullifier()) {
			n.Spent = true
		}
	}
}
