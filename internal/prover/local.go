package prover

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/Atamanov/solana-stub-prover/internal/commitment"
	"github.com/Atamanov/solana-stub-prover/pkg/logger"
)

// LocalBackend proves the slot-range statement with groth16 over BN254.
// Circuit compilation and key setup happen once per backend instance and are
// reused across proving runs.
type LocalBackend struct {
	log *logger.Logger

	compileOnce sync.Once
	ccs         constraint.ConstraintSystem
	compileErr  error

	setupOnce sync.Once
	pk        groth16.ProvingKey
	vk        groth16.VerifyingKey
	vkHash    [32]byte
	setupErr  error
}

func NewLocalBackend(log *logger.Logger) *LocalBackend {
	return &LocalBackend{log: log}
}

func (b *LocalBackend) compile() error {
	b.compileOnce.Do(func() {
		var circuit SlotRangeCircuit
		b.ccs, b.compileErr = frontend.Compile(ElipticalCurveID.ScalarField(), r1cs.NewBuilder, &circuit)
	})
	return b.compileErr
}

func (b *LocalBackend) setup() error {
	if err := b.compile(); err != nil {
		return err
	}
	b.setupOnce.Do(func() {
		pk, vk, err := groth16.Setup(b.ccs)
		if err != nil {
			b.setupErr = err
			return
		}

		var vkBuf bytes.Buffer
		if _, err := vk.WriteTo(&vkBuf); err != nil {
			b.setupErr = err
			return
		}

		b.pk = pk
		b.vk = vk
		b.vkHash = sha256.Sum256(vkBuf.Bytes())
	})
	return b.setupErr
}

// Execute runs the commitment logic without proving and reports resource
// usage, so callers can validate inputs before paying for a proof.
func (b *LocalBackend) Execute(ctx context.Context, input *commitment.ProverInput) (*commitment.PublicCommitments, *ExecutionReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if input.EndSlot <= input.StartSlot {
		return nil, nil, fmt.Errorf("%w: start %d, end %d", ErrExecutionFailed, input.StartSlot, input.EndSlot)
	}
	if err := b.compile(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}

	public := commitment.Commit(input)
	raw, err := public.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}

	return public, &ExecutionReport{
		Constraints:      b.ccs.GetNbConstraints(),
		PublicValueBytes: len(raw),
	}, nil
}

// Prove produces a proof artifact in the requested mode.
func (b *LocalBackend) Prove(ctx context.Context, input *commitment.ProverInput, mode Mode) (*Artifact, error) {
	if mode != ModeCompressed && mode != ModeFinal {
		return nil, fmt.Errorf("%w: unsupported mode %q", ErrProvingFailed, mode)
	}
	if input.EndSlot <= input.StartSlot {
		return nil, fmt.Errorf("%w: start %d, end %d", ErrProvingFailed, input.StartSlot, input.EndSlot)
	}
	if err := b.setup(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	public := commitment.Commit(input)
	publicValue, err := public.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvingFailed, err)
	}

	assignment := &SlotRangeCircuit{
		StartSlot:          input.StartSlot,
		EndSlot:            input.EndSlot,
		PublicValuesDigest: publicValuesDigest(publicValue),
	}
	fullWitness, err := frontend.NewWitness(assignment, ElipticalCurveID.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvingFailed, err)
	}

	proof, err := groth16.Prove(b.ccs, b.pk, fullWitness)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvingFailed, err)
	}

	version := VersionCompressed
	var proofBuf bytes.Buffer
	if mode == ModeFinal {
		publicWitness, err := fullWitness.Public()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProvingFailed, err)
		}
		if err := groth16.Verify(proof, b.vk, publicWitness); err != nil {
			return nil, fmt.Errorf("%w: self-verification: %v", ErrProvingFailed, err)
		}
		if _, err := proof.WriteRawTo(&proofBuf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProvingFailed, err)
		}
		version = VersionFinal
	} else {
		if _, err := proof.WriteTo(&proofBuf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProvingFailed, err)
		}
	}

	b.log.Debugf("generated %s proof: %d bytes, %d public value bytes", mode, proofBuf.Len(), len(publicValue))

	return &Artifact{
		Mode:            mode,
		Version:         version,
		VerificationKey: b.vkHash,
		Proof:           proofBuf.Bytes(),
		PublicValue:     publicValue,
	}, nil
}
