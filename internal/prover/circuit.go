package prover

import (
	"crypto/sha256"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
)

const (
	ElipticalCurveID = ecc.BN254
)

// SlotRangeCircuit asserts that the proven slot bounds are strictly
// increasing. The bounds and a digest of the committed public values are
// public inputs, so the statement binds the proof to one commitment.
type SlotRangeCircuit struct {
	StartSlot          frontend.Variable `gnark:",public"`
	EndSlot            frontend.Variable `gnark:",public"`
	PublicValuesDigest frontend.Variable `gnark:",public"`
}

// Define implements the frontend.Circuit interface.
func (circuit *SlotRangeCircuit) Define(api frontend.API) error {
	api.AssertIsLessOrEqual(api.Add(circuit.StartSlot, 1), circuit.EndSlot)
	return nil
}

// publicValuesDigest folds serialized public values into a field element.
// The sha256 digest is truncated to 31 bytes so it always fits the BN254
// scalar field.
func publicValuesDigest(raw []byte) *big.Int {
	digest := sha256.Sum256(raw)
	return new(big.Int).SetBytes(digest[:31])
}
