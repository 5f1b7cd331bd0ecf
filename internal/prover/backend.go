package prover

import (
	"context"
	"errors"

	"github.com/Atamanov/solana-stub-prover/internal/commitment"
)

// Mode selects the proof flavor.
type Mode string

const (
	// ModeCompressed is fast and small but not independently verifiable
	// on-chain.
	ModeCompressed Mode = "compressed"
	// ModeFinal is slower and larger; the artifact is checked against the
	// verifying key before it is returned.
	ModeFinal Mode = "final"
)

// Artifact versions per mode, kept stable for backward-compatible decoding.
const (
	VersionCompressed uint32 = 1
	VersionFinal      uint32 = 2
)

var (
	ErrExecutionFailed = errors.New("execution failed")
	ErrProvingFailed   = errors.New("proving failed")
	ErrSetupFailed     = errors.New("proving key setup failed")
)

// ExecutionReport summarizes resource usage of a dry run.
type ExecutionReport struct {
	// Constraints is the size of the compiled circuit, the closest local
	// analogue of a cycle count.
	Constraints int
	// PublicValueBytes is the serialized size of the committed values.
	PublicValueBytes int
}

// Artifact is a finished proof plus everything a consumer needs to frame it.
type Artifact struct {
	Mode            Mode
	Version         uint32
	VerificationKey [32]byte
	Proof           []byte
	PublicValue     []byte
}

// Backend is the opaque proving capability. Execute runs the commitment
// logic without producing a proof; Prove pays for the full artifact. Neither
// retries internally, retry policy belongs to the caller.
type Backend interface {
	Execute(ctx context.Context, input *commitment.ProverInput) (*commitment.PublicCommitments, *ExecutionReport, error)
	Prove(ctx context.Context, input *commitment.ProverInput, mode Mode) (*Artifact, error)
}
