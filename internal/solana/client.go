package solana

import (
	"context"
	"errors"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/Atamanov/solana-stub-prover/internal/commitment"
	"github.com/Atamanov/solana-stub-prover/pkg/logger"
)

// ErrAccountNotFound is returned when the RPC node has no record of the
// requested account.
var ErrAccountNotFound = errors.New("account not found")

// Client fetches account snapshots over Solana JSON-RPC.
type Client struct {
	rpc *rpc.Client
	log *logger.Logger
}

// NewClient connects to the given RPC endpoint, defaulting to devnet.
func NewClient(endpoint string, log *logger.Logger) *Client {
	if endpoint == "" {
		endpoint = rpc.DevNet_RPC
	}
	return &Client{
		rpc: rpc.New(endpoint),
		log: log,
	}
}

// CurrentSlot returns the node's latest confirmed slot.
func (c *Client) CurrentSlot(ctx context.Context) (uint64, error) {
	return c.rpc.GetSlot(ctx, rpc.CommitmentConfirmed)
}

// FetchAccount fetches the account's state at or after minSlot. The node may
// answer from a later slot than requested; the snapshot carries the actual
// slot and callers must tolerate the difference.
func (c *Client) FetchAccount(ctx context.Context, account string, minSlot uint64) (*commitment.AccountSnapshot, error) {
	pubkey, err := solanago.PublicKeyFromBase58(account)
	if err != nil {
		return nil, fmt.Errorf("parse account pubkey %q: %w", account, err)
	}

	opts := &rpc.GetAccountInfoOpts{
		Encoding:   solanago.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	}
	if minSlot > 0 {
		opts.MinContextSlot = &minSlot
	}

	result, err := c.rpc.GetAccountInfoWithOpts(ctx, pubkey, opts)
	if err != nil {
		return nil, fmt.Errorf("get account info for %s: %w", account, err)
	}
	if result.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}

	actualSlot := result.RPCContext.Context.Slot
	if minSlot > 0 && actualSlot != minSlot {
		c.log.Warnf("requested slot %d but got data from slot %d; historical slot data may not be available",
			minSlot, actualSlot)
	}

	var data []byte
	if result.Value.Data != nil {
		data = result.Value.Data.GetBinary()
	}

	// RentEpoch is a big.Int on the wire; values past u64 clamp.
	var rentEpoch uint64
	if re := result.Value.RentEpoch; re != nil {
		if re.IsUint64() {
			rentEpoch = re.Uint64()
		} else {
			rentEpoch = ^uint64(0)
		}
	}

	return &commitment.AccountSnapshot{
		Pubkey:     pubkey.Bytes(),
		Owner:      result.Value.Owner.Bytes(),
		Lamports:   result.Value.Lamports,
		Executable: result.Value.Executable,
		RentEpoch:  rentEpoch,
		Slot:       actualSlot,
		Data:       data,
	}, nil
}
