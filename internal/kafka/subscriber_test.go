package kafka

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/Atamanov/solana-stub-prover/internal/commitment"
	"github.com/Atamanov/solana-stub-prover/internal/envelope"
	"github.com/Atamanov/solana-stub-prover/pkg/logger"
)

// step is one scripted ReadMessage outcome.
type step struct {
	msg kafkago.Message
	err error
}

type fakeSource struct {
	steps []step
	idx   int
}

func (f *fakeSource) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafkago.Message{}, err
	}
	if f.idx >= len(f.steps) {
		return kafkago.Message{}, io.EOF
	}
	s := f.steps[f.idx]
	f.idx++
	return s.msg, s.err
}

func (f *fakeSource) Close() error { return nil }

func testSubscriber(steps []step) *Subscriber {
	return &Subscriber{
		source:  &fakeSource{steps: steps},
		backoff: time.Millisecond,
		log:     logger.New().WithOutput(io.Discard),
	}
}

func proofRecord(t *testing.T, startSlot, endSlot uint64) kafkago.Message {
	t.Helper()

	snapshot := commitment.AccountSnapshot{
		Pubkey:   make([]byte, 32),
		Owner:    make([]byte, 32),
		Lamports: 1,
		Slot:     endSlot,
		Data:     []byte("state"),
	}
	input, err := commitment.BuildInput(startSlot, endSlot, []commitment.AccountSnapshot{snapshot})
	require.NoError(t, err)
	publicValue, err := commitment.Commit(input).MarshalBinary()
	require.NoError(t, err)

	env := &envelope.Envelope{
		Identifier: "solana-stub-100-200",
		Kind:       envelope.ProofKind{Type: envelope.KindSolanaConsensusProof},
		Data: envelope.ProofData{
			Family: envelope.FamilySP1,
			SP1: &envelope.SP1ProofData{
				Version:     1,
				Proof:       []byte{0xde, 0xad},
				PublicValue: publicValue,
			},
		},
	}
	raw, err := envelope.Encode(env)
	require.NoError(t, err)

	return kafkago.Message{
		Partition: 2,
		Offset:    17,
		Key:       []byte(env.Identifier),
		Value:     raw,
	}
}

func TestRunDeliversDecodedEnvelopes(t *testing.T) {
	sub := testSubscriber([]step{{msg: proofRecord(t, 100, 200)}})

	var envs []*envelope.Envelope
	var infos []RecordInfo
	err := sub.Run(context.Background(), func(env *envelope.Envelope, info RecordInfo) {
		envs = append(envs, env)
		infos = append(infos, info)
	})
	require.NoError(t, err)
	require.Len(t, envs, 1)

	require.Equal(t, "solana-stub-100-200", envs[0].Identifier)
	require.Equal(t, RecordInfo{Partition: 2, Offset: 17, Key: "solana-stub-100-200"}, infos[0])

	public, ok := envs[0].Commitments()
	require.True(t, ok)
	require.Equal(t, uint64(100), public.StartSlot)
	require.Equal(t, uint64(200), public.EndSlot)
}

func TestRunSkipsUndecodableRecords(t *testing.T) {
	sub := testSubscriber([]step{
		{msg: kafkago.Message{Value: []byte("not json")}},
		{msg: proofRecord(t, 100, 200)},
	})

	var delivered int
	err := sub.Run(context.Background(), func(env *envelope.Envelope, info RecordInfo) {
		delivered++
	})
	require.NoError(t, err)
	require.Equal(t, 1, delivered)
}

func TestRunResetsErrorCounterOnSuccess(t *testing.T) {
	boom := errors.New("broker unavailable")
	steps := make([]step, 0, 2*maxConsecutiveErrors)
	for i := 0; i < maxConsecutiveErrors-1; i++ {
		steps = append(steps, step{err: boom})
	}
	steps = append(steps, step{msg: proofRecord(t, 100, 200)})
	for i := 0; i < maxConsecutiveErrors-1; i++ {
		steps = append(steps, step{err: boom})
	}
	sub := testSubscriber(steps)

	var delivered int
	err := sub.Run(context.Background(), func(env *envelope.Envelope, info RecordInfo) {
		delivered++
	})
	require.NoError(t, err)
	require.Equal(t, 1, delivered)
}

func TestRunStopsAfterConsecutiveErrorThreshold(t *testing.T) {
	boom := errors.New("broker unavailable")
	steps := make([]step, maxConsecutiveErrors)
	for i := range steps {
		steps[i] = step{err: boom}
	}
	sub := testSubscriber(steps)

	err := sub.Run(context.Background(), func(env *envelope.Envelope, info RecordInfo) {
		t.Fatal("no record should be delivered")
	})
	require.ErrorIs(t, err, ErrTooManyConsumeErrors)
}

func TestRunReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sub := testSubscriber([]step{{msg: proofRecord(t, 100, 200)}})

	err := sub.Run(ctx, func(env *envelope.Envelope, info RecordInfo) {
		t.Fatal("no record should be delivered after cancellation")
	})
	require.ErrorIs(t, err, context.Canceled)
}
