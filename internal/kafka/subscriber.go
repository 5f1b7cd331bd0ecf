package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/Atamanov/solana-stub-prover/internal/envelope"
	"github.com/Atamanov/solana-stub-prover/pkg/logger"
)

const (
	// maxConsecutiveErrors bounds how long a degraded broker connection is
	// tolerated before the loop escalates to its caller.
	maxConsecutiveErrors = 10
	receiveBackoff       = time.Second
	offsetCommitInterval = time.Second
)

// ErrTooManyConsumeErrors terminates a subscriber after the consecutive
// receive-error threshold is reached. Requires an external restart.
var ErrTooManyConsumeErrors = errors.New("too many consecutive consume errors")

// StartOffset is the policy for a consumer group with no committed offset.
type StartOffset string

const (
	OffsetEarliest StartOffset = "earliest"
	OffsetLatest   StartOffset = "latest"
)

// SubscriberOptions tune one subscription; zero values mean the protocol
// defaults (shared consumer group, latest offset).
type SubscriberOptions struct {
	GroupID     string
	StartOffset StartOffset
}

// RecordInfo locates one consumed record on the bus.
type RecordInfo struct {
	Partition int
	Offset    int64
	Key       string
}

// Handler receives every envelope the subscriber manages to decode.
type Handler func(env *envelope.Envelope, info RecordInfo)

// recordSource is the slice of kafkago.Reader the subscriber relies on.
type recordSource interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// Subscriber consumes the proof topic as a single logical stream, in
// partition order within each partition. Offsets auto-commit periodically,
// so delivery is at-least-once and handlers must be idempotent with respect
// to the envelope identifier.
type Subscriber struct {
	source  recordSource
	backoff time.Duration
	log     *logger.Logger
}

func NewSubscriber(cfg Config, opts SubscriberOptions, log *logger.Logger) (*Subscriber, error) {
	cfg = cfg.normalized()

	dialer, err := cfg.dialer()
	if err != nil {
		return nil, err
	}

	groupID := opts.GroupID
	if groupID == "" {
		groupID = ConsumerGroup
	}
	startOffset := kafkago.LastOffset
	if opts.StartOffset == OffsetEarliest {
		startOffset = kafkago.FirstOffset
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        groupID,
		Topic:          Topic,
		Dialer:         dialer,
		StartOffset:    startOffset,
		CommitInterval: offsetCommitInterval,
		MinBytes:       1,
		MaxBytes:       10 << 20,
	})

	log.Infof("subscribed to topic %s as group %s (offset policy: %s)", Topic, groupID, orLatest(opts.StartOffset))

	return &Subscriber{
		source:  reader,
		backoff: receiveBackoff,
		log:     log,
	}, nil
}

func orLatest(o StartOffset) StartOffset {
	if o == "" {
		return OffsetLatest
	}
	return o
}

// Run consumes records until the context is cancelled, the subscriber is
// closed, or the consecutive-error threshold is reached. Decode failures are
// logged and skipped; they never terminate the loop.
func (s *Subscriber) Run(ctx context.Context, handle Handler) error {
	consecutiveErrors := 0

	for {
		msg, err := s.source.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Reader closed: clean shutdown.
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			consecutiveErrors++
			s.log.Errorf(err, "receive error (%d/%d)", consecutiveErrors, maxConsecutiveErrors)
			if consecutiveErrors >= maxConsecutiveErrors {
				return fmt.Errorf("%w: stopped after %d attempts, last error: %v",
					ErrTooManyConsumeErrors, consecutiveErrors, err)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff):
			}
			continue
		}
		consecutiveErrors = 0

		env, err := envelope.Decode(msg.Value)
		if err != nil {
			s.log.Errorf(err, "skipping undecodable record at partition %d, offset %d", msg.Partition, msg.Offset)
			continue
		}

		handle(env, RecordInfo{
			Partition: msg.Partition,
			Offset:    msg.Offset,
			Key:       string(msg.Key),
		})
	}
}

// Close terminates the receive loop; a not-yet-received record is simply not
// delivered.
func (s *Subscriber) Close() error {
	return s.source.Close()
}
