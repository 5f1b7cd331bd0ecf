package envelope

import (
	"encoding/json"

	"github.com/Atamanov/solana-stub-prover/internal/commitment"
)

// Proof kind tags on the wire.
const (
	KindSolanaConsensusProof = "SolanaConsensusProof"
	KindExecutionProof       = "ExecutionProof"
)

// FamilySP1 is the only proving-system family this codec fully understands.
const FamilySP1 = "SP1"

// ProofKind is a tagged variant. Tags outside the known set are preserved
// verbatim so that newer producers keep flowing through older consumers.
type ProofKind struct {
	Type string
	// ExecutionID is meaningful only when Type is KindExecutionProof.
	ExecutionID uint64
}

func (k ProofKind) Known() bool {
	return k.Type == KindSolanaConsensusProof || k.Type == KindExecutionProof
}

// SP1ProofData is the family "SP1" payload.
type SP1ProofData struct {
	Version         uint32
	VerificationKey [32]byte
	Proof           []byte
	PublicValue     []byte
}

// ProofData is a tagged variant over proving-system families. SP1 is set for
// FamilySP1; any other family keeps its raw JSON object in Raw.
type ProofData struct {
	Family string
	SP1    *SP1ProofData
	Raw    json.RawMessage
}

func (d ProofData) Known() bool {
	return d.Family == FamilySP1 && d.SP1 != nil
}

// Envelope is the versioned wire wrapper for one proof submission. It is
// built once per proving run and immutable thereafter; Identifier doubles as
// the bus partition key.
type Envelope struct {
	Identifier string
	Kind       ProofKind
	Data       ProofData
}

// Commitments tries to interpret the SP1 public value as PublicCommitments.
// The second return is false for unknown families and for payloads this
// consumer cannot parse; the envelope itself stays valid either way.
func (e *Envelope) Commitments() (*commitment.PublicCommitments, bool) {
	if !e.Data.Known() || len(e.Data.SP1.PublicValue) == 0 {
		return nil, false
	}
	pc, err := commitment.DecodeCommitments(e.Data.SP1.PublicValue)
	if err != nil {
		return nil, false
	}
	return pc, true
}
