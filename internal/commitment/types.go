package commitment

// SlotsPerEpoch is the Solana mainnet/devnet epoch length.
const SlotsPerEpoch uint64 = 432000

// Epoch-level aggregates reported by the stub program. Real deployments
// derive these from the epoch stake snapshot.
const (
	stubTotalActiveStake uint64 = 1_000_000_000
	stubValidatorCount   uint32 = 100
)

// placeholderValsetRoot marks the validator-set commitment as unimplemented.
// It is all-zero on purpose and must not be read as a real merkle root.
var placeholderValsetRoot [32]byte

// AccountStateCommitment is the attested state of one monitored account.
// Field order is the frozen binary schema, do not reorder.
type AccountStateCommitment struct {
	AccountPubkey   [32]byte
	LastChangeSlot  uint64
	AccountDataHash [32]byte
	Lamports        uint64
	Owner           [32]byte
	Executable      bool
	RentEpoch       uint64
	Data            []byte
}

// PublicCommitments is the complete public statement of one proof.
type PublicCommitments struct {
	StartSlot              uint64
	EndSlot                uint64
	Epoch                  uint64
	OriginalBankHash       [32]byte
	LastBankHash           [32]byte
	AccountDataHash        [32]byte
	HashRootValset         [32]byte
	TotalActiveStake       uint64
	ValidatorCount         uint32
	MonitoredAccountsState []AccountStateCommitment
	ValidationsPassed      bool
}

// ProverInput is the structured input handed to a proving backend.
type ProverInput struct {
	StartSlot              uint64
	EndSlot                uint64
	Epoch                  uint64
	OriginalBankHash       [32]byte
	LastBankHash           [32]byte
	MonitoredAccountsState []AccountStateCommitment
}

// AccountSnapshot is a raw account observation, as returned by a snapshot
// source. Pubkey and Owner are expected to be exactly 32 bytes; the builder
// rejects anything else.
type AccountSnapshot struct {
	Pubkey     []byte
	Owner      []byte
	Lamports   uint64
	Executable bool
	RentEpoch  uint64
	Slot       uint64
	Data       []byte
}
