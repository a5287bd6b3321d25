// Package zkp is the proof-system boundary: Groth16 over BW6-761, circuit
// compilation, trusted-setup key generation and key persistence. The rest
// of the repo consumes proofs as opaque byte slices and never touches the
// backend directly except through the statement packages and this one.
package zkp

import (
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// ProvingSystem bundles everything needed to prove and verify one
// statement.
type ProvingSystem struct {
	CCS constraint.ConstraintSystem
	PK  groth16.ProvingKey
	VK  groth16.VerifyingKey
}

// Compile compiles a statement over the BW6-761 scalar field.
func Compile(circuit frontend.Circuit) (constraint.ConstraintSystem, error) {
	return frontend.Compile(ecc.BW6_761.ScalarField(), r1cs.NewBuilder, circuit)
}

// Setup compiles the statement and runs a fresh Groth16 setup.
func Setup(circuit frontend.Circuit) (*ProvingSystem, error) {
	ccs, err := Compile(circuit)
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, err
	}
	return &ProvingSystem{CCS: ccs, PK: pk, VK: vk}, nil
}

// SetupOrLoad compiles the statement, then loads the Groth16 keys from
// disk if both files exist, or generates and saves fresh ones.
func SetupOrLoad(circuit frontend.Circuit, pkPath, vkPath string) (*ProvingSystem, error) {
	ccs, err := Compile(circuit)
	if err != nil {
		return nil, err
	}
	pk, pkErr := LoadProvingKey(pkPath)
	vk, vkErr := LoadVerifyingKey(vkPath)
	if pkErr == nil && vkErr == nil {
		return &ProvingSystem{CCS: ccs, PK: pk, VK: vk}, nil
	}

	pk, vk, err = groth16.Setup(ccs)
	if err != nil {
		return nil, err
	}
	if err := SaveProvingKey(pkPath, pk); err != nil {
		return nil, err
	}
	if err := SaveVerifyingKey(vkPath, vk); err != nil {
		return nil, err
	}
	return &ProvingSystem{CCS: ccs, PK: pk, VK: vk}, nil
}

// SaveProvingKey writes a Groth16 proving key to disk.
func SaveProvingKey(path string, pk groth16.ProvingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = pk.WriteTo(f)
	return err
}

// SaveVerifyingKey writes a Groth16 verifying key to disk.
func SaveVerifyingKey(path string, vk groth16.VerifyingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = vk.WriteTo(f)
	return err
}

// LoadProvingKey reads a Groth16 proving key from disk.
func LoadProvingKey(path string) (groth16.ProvingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pk := groth16.NewProvingKey(ecc.BW6_761)
	_, err = pk.ReadFrom(f)
	return pk, err
}

// LoadVerifyingKey reads a Groth16 verifying key from disk.
func LoadVerifyingKey(path string) (groth16.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vk := groth16.NewVerifyingKey(ecc.BW6_761)
	_, err = vk.ReadFrom(f)
	return vk, err
}
