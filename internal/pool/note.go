// note.go - Deposit secrets and the withdrawer's private deposit record.

package pool

import "math/big"

// Secret holds the two private scalars behind one deposit. The identity id
// doubles as the nullifier seed; r is the blinding factor. Secrets are
// never transmitted.
type Secret struct {
	Id *big.Int `json:"id"`
	R  *big.Int `json:"r"`
}

// NewSecret samples a fresh (id, r) pair.
func NewSecret() (*Secret, error) {
	id, err := RandomScalar()
	if err != nil {
		return nil, err
	}
	r, err := RandomScalar()
	if err != nil {
		return nil, err
	}
	return &Secret{Id: id, R: r}, nil
}

// Commitment returns C = MiMC(id, r) for this secret.
func (s *Secret) Commitment() *big.Int {
	return Commit(s.Id, s.R)
}

// Nullifier returns the public value revealed when this secret is spent.
func (s *Secret) Nullifier() *big.Int {
	return DeriveNullifier(s.Id)
}

// Note is one deposit as recorded by its owner: the secret, the public
// commitment, and the authentication path captured from the tree mirror.
// The path is tagged with the tree version it was computed against;
// CreateWithdraw refuses a stale one.
type Note struct {
	Secret      *Secret    `json:"secret"`
	Cm          *big.Int   `json:"cm"`
	Index       uint64     `json:"index"`
	Siblings    []*big.Int `json:"siblings"`
	PathRoot    *big.Int   `json:"path_root"`
	PathVersion uint64     `json:"path_version"`
	Spent       bool       `json:"spent"`
}

// RefreshPath recomputes the note's authentication path against the
// current state of the tree mirror.
func (n *Note) RefreshPath(t *Tree) error {
	p, err := t.Path(n.Index)
	if err != nil {
		return err
	}
	n.Siblings = p.Siblings
	n.PathRoot = p.Root
	n.PathVersion = p.Version
	return nil
}
