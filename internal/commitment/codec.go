package commitment

import (
	"github.com/near/borsh-go"
)

// The wire schema for commitments is borsh: little-endian fixed-width
// integers, u32 length-prefixed slices, one byte per bool.

func (pc *PublicCommitments) MarshalBinary() ([]byte, error) {
	return borsh.Serialize(*pc)
}

func (in *ProverInput) MarshalBinary() ([]byte, error) {
	return borsh.Serialize(*in)
}

// DecodeCommitments parses borsh-encoded public values.
func DecodeCommitments(raw []byte) (*PublicCommitments, error) {
	var pc PublicCommitments
	if err := borsh.Deserialize(&pc, raw); err != nil {
		return nil, err
	}
	return &pc, nil
}

// DecodeProverInput parses a borsh-encoded proving input.
func DecodeProverInput(raw []byte) (*ProverInput, error) {
	var in ProverInput
	if err := borsh.Deserialize(&in, raw); err != nil {
		return nil, err
	}
	return &in, nil
}
