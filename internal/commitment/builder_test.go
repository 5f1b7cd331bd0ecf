package commitment

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSnapshot(seed byte, slot uint64, data []byte) AccountSnapshot {
	pubkey := make([]byte, 32)
	owner := make([]byte, 32)
	for i := range pubkey {
		pubkey[i] = seed
		owner[i] = seed + 1
	}
	return AccountSnapshot{
		Pubkey:     pubkey,
		Owner:      owner,
		Lamports:   1_000_000,
		Executable: false,
		RentEpoch:  361,
		Slot:       slot,
		Data:       data,
	}
}

func TestBuildRejectsInvalidRange(t *testing.T) {
	snapshots := []AccountSnapshot{testSnapshot(1, 150, []byte("payload"))}

	_, err := Build(200, 100, snapshots)
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = Build(100, 100, snapshots)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestBuildSucceedsOnValidRange(t *testing.T) {
	public, err := Build(100, 200, []AccountSnapshot{testSnapshot(1, 150, []byte("payload"))})
	require.NoError(t, err)

	require.Equal(t, uint64(100), public.StartSlot)
	require.Equal(t, uint64(200), public.EndSlot)
	require.True(t, public.ValidationsPassed)
	require.Len(t, public.MonitoredAccountsState, 1)
}

func TestBuildRejectsMalformedPubkey(t *testing.T) {
	snap := testSnapshot(1, 150, nil)
	snap.Pubkey = snap.Pubkey[:16]

	_, err := Build(100, 200, []AccountSnapshot{snap})
	require.Error(t, err)
	require.Contains(t, err.Error(), "pubkey")
}

func TestBuildIsDeterministic(t *testing.T) {
	snapshots := []AccountSnapshot{
		testSnapshot(1, 150, []byte("first")),
		testSnapshot(7, 180, []byte("second")),
	}

	first, err := Build(100, 200, snapshots)
	require.NoError(t, err)
	second, err := Build(100, 200, snapshots)
	require.NoError(t, err)

	firstRaw, err := first.MarshalBinary()
	require.NoError(t, err)
	secondRaw, err := second.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, firstRaw, secondRaw)
}

func TestAggregateHashIsOrderSensitive(t *testing.T) {
	a := testSnapshot(1, 150, []byte("first"))
	b := testSnapshot(7, 180, []byte("second"))

	forward, err := Build(100, 200, []AccountSnapshot{a, b})
	require.NoError(t, err)
	reversed, err := Build(100, 200, []AccountSnapshot{b, a})
	require.NoError(t, err)

	require.NotEqual(t, forward.AccountDataHash, reversed.AccountDataHash)
}

func TestEpochForSlot(t *testing.T) {
	require.Equal(t, uint64(0), EpochForSlot(431999))
	require.Equal(t, uint64(1), EpochForSlot(432000))
	require.Equal(t, uint64(1), EpochForSlot(863999))

	public, err := Build(431000, 432000, []AccountSnapshot{testSnapshot(1, 432000, nil)})
	require.NoError(t, err)
	require.Equal(t, uint64(1), public.Epoch)
}

func TestEmptyDataHashesToEmptyDigest(t *testing.T) {
	public, err := Build(100, 200, []AccountSnapshot{testSnapshot(1, 150, nil)})
	require.NoError(t, err)

	require.Equal(t, [32]byte(sha256.Sum256(nil)), public.MonitoredAccountsState[0].AccountDataHash)
}

func TestPerAccountHashMatchesData(t *testing.T) {
	data := []byte("account payload bytes")
	public, err := Build(100, 200, []AccountSnapshot{testSnapshot(1, 150, data)})
	require.NoError(t, err)

	require.Equal(t, HashData(data), public.MonitoredAccountsState[0].AccountDataHash)
}

func TestCommitmentsBinaryRoundTrip(t *testing.T) {
	public, err := Build(100, 200, []AccountSnapshot{testSnapshot(1, 150, []byte("payload"))})
	require.NoError(t, err)

	raw, err := public.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeCommitments(raw)
	require.NoError(t, err)
	require.Equal(t, public, decoded)
}

func TestProverInputBinaryRoundTrip(t *testing.T) {
	input, err := BuildInput(100, 200, []AccountSnapshot{testSnapshot(1, 150, []byte("payload"))})
	require.NoError(t, err)

	raw, err := input.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeProverInput(raw)
	require.NoError(t, err)
	require.Equal(t, input, decoded)
}
