package commitment

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when the slot bounds are not strictly increasing.
var ErrInvalidRange = errors.New("end slot must be greater than start slot")

// EpochForSlot maps a slot to its epoch by floor division.
func EpochForSlot(slot uint64) uint64 {
	return slot / SlotsPerEpoch
}

// HashData returns the sha256 digest of an account's raw byte payload.
// Zero-length data hashes to the digest of the empty byte sequence.
func HashData(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HashSlot derives a stand-in bank hash from a slot number.
func HashSlot(slot uint64) [32]byte {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], slot)
	return sha256.Sum256(le[:])
}

// BuildInput validates the slot range and the account snapshots and folds
// them into a ProverInput. Any malformed snapshot aborts the whole build;
// no partial input is returned.
func BuildInput(startSlot, endSlot uint64, snapshots []AccountSnapshot) (*ProverInput, error) {
	if endSlot <= startSlot {
		return nil, fmt.Errorf("%w: start %d, end %d", ErrInvalidRange, startSlot, endSlot)
	}

	states := make([]AccountStateCommitment, 0, len(snapshots))
	for i, snap := range snapshots {
		pubkey, err := toBytes32(snap.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: account pubkey: %w", i, err)
		}
		owner, err := toBytes32(snap.Owner)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: owner: %w", i, err)
		}

		states = append(states, AccountStateCommitment{
			AccountPubkey:   pubkey,
			LastChangeSlot:  snap.Slot,
			AccountDataHash: HashData(snap.Data),
			Lamports:        snap.Lamports,
			Owner:           owner,
			Executable:      snap.Executable,
			RentEpoch:       snap.RentEpoch,
			Data:            snap.Data,
		})
	}

	return &ProverInput{
		StartSlot:              startSlot,
		EndSlot:                endSlot,
		Epoch:                  EpochForSlot(endSlot),
		OriginalBankHash:       HashSlot(startSlot),
		LastBankHash:           HashSlot(endSlot),
		MonitoredAccountsState: states,
	}, nil
}

// Commit runs the program half of the build: one running digest over every
// account's pubkey, last-change slot (little endian) and per-account data
// hash, in sequence order, finalized once. Reordering the accounts yields a
// different aggregate.
func Commit(in *ProverInput) *PublicCommitments {
	h := sha256.New()
	var slotLE [8]byte
	for i := range in.MonitoredAccountsState {
		account := &in.MonitoredAccountsState[i]
		h.Write(account.AccountPubkey[:])
		binary.LittleEndian.PutUint64(slotLE[:], account.LastChangeSlot)
		h.Write(slotLE[:])
		h.Write(account.AccountDataHash[:])
	}
	var aggregate [32]byte
	copy(aggregate[:], h.Sum(nil))

	return &PublicCommitments{
		StartSlot:              in.StartSlot,
		EndSlot:                in.EndSlot,
		Epoch:                  in.Epoch,
		OriginalBankHash:       in.OriginalBankHash,
		LastBankHash:           in.LastBankHash,
		AccountDataHash:        aggregate,
		HashRootValset:         placeholderValsetRoot,
		TotalActiveStake:       stubTotalActiveStake,
		ValidatorCount:         stubValidatorCount,
		MonitoredAccountsState: in.MonitoredAccountsState,
		ValidationsPassed:      true,
	}
}

// Build validates and commits in one step.
func Build(startSlot, endSlot uint64, snapshots []AccountSnapshot) (*PublicCommitments, error) {
	in, err := BuildInput(startSlot, endSlot, snapshots)
	if err != nil {
		return nil, err
	}
	return Commit(in), nil
}

func toBytes32(b []byte) ([32]byte, error) {
	var out [32]byte
	if len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
