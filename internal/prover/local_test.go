package prover

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Atamanov/solana-stub-prover/internal/commitment"
	"github.com/Atamanov/solana-stub-prover/pkg/logger"
)

func testInput(t *testing.T, startSlot, endSlot uint64) *commitment.ProverInput {
	t.Helper()

	snapshot := commitment.AccountSnapshot{
		Pubkey:   make([]byte, 32),
		Owner:    make([]byte, 32),
		Lamports: 5_000_000,
		Slot:     endSlot,
		Data:     []byte("monitored account payload"),
	}
	input, err := commitment.BuildInput(startSlot, endSlot, []commitment.AccountSnapshot{snapshot})
	require.NoError(t, err)
	return input
}

func testBackend(t *testing.T) *LocalBackend {
	t.Helper()
	return NewLocalBackend(logger.New().WithOutput(io.Discard))
}

func TestExecuteMatchesCommitmentBuild(t *testing.T) {
	backend := testBackend(t)
	input := testInput(t, 100, 200)

	public, report, err := backend.Execute(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, commitment.Commit(input), public)
	require.Greater(t, report.Constraints, 0)
	require.Greater(t, report.PublicValueBytes, 0)
}

func TestExecuteRejectsInvalidRange(t *testing.T) {
	backend := testBackend(t)
	input := testInput(t, 100, 200)
	input.EndSlot = 100

	_, _, err := backend.Execute(context.Background(), input)
	require.ErrorIs(t, err, ErrExecutionFailed)
}

func TestProveCompressed(t *testing.T) {
	backend := testBackend(t)
	input := testInput(t, 100, 200)

	artifact, err := backend.Prove(context.Background(), input, ModeCompressed)
	require.NoError(t, err)
	require.Equal(t, ModeCompressed, artifact.Mode)
	require.Equal(t, VersionCompressed, artifact.Version)
	require.NotEmpty(t, artifact.Proof)
	require.NotEqual(t, [32]byte{}, artifact.VerificationKey)

	public, err := commitment.DecodeCommitments(artifact.PublicValue)
	require.NoError(t, err)
	require.Equal(t, uint64(100), public.StartSlot)
	require.Equal(t, uint64(200), public.EndSlot)
	require.True(t, public.ValidationsPassed)
}

func TestProveFinalSelfVerifies(t *testing.T) {
	backend := testBackend(t)
	input := testInput(t, 100, 200)

	artifact, err := backend.Prove(context.Background(), input, ModeFinal)
	require.NoError(t, err)
	require.Equal(t, VersionFinal, artifact.Version)
	require.NotEmpty(t, artifact.Proof)
}

func TestProveRejectsInvalidRange(t *testing.T) {
	backend := testBackend(t)
	input := testInput(t, 100, 200)
	input.EndSlot = input.StartSlot

	_, err := backend.Prove(context.Background(), input, ModeCompressed)
	require.ErrorIs(t, err, ErrProvingFailed)
}

func TestProveRejectsUnsupportedMode(t *testing.T) {
	backend := testBackend(t)

	_, err := backend.Prove(context.Background(), testInput(t, 100, 200), Mode("groth32"))
	require.ErrorIs(t, err, ErrProvingFailed)
}

func TestSetupIsReusedAcrossProofs(t *testing.T) {
	backend := testBackend(t)
	input := testInput(t, 100, 200)

	first, err := backend.Prove(context.Background(), input, ModeCompressed)
	require.NoError(t, err)
	second, err := backend.Prove(context.Background(), input, ModeCompressed)
	require.NoError(t, err)

	// Same memoized key material frames both artifacts.
	require.Equal(t, first.VerificationKey, second.VerificationKey)
}
