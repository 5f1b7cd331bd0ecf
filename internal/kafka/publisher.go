package kafka

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/Atamanov/solana-stub-prover/internal/envelope"
	"github.com/Atamanov/solana-stub-prover/pkg/logger"
)

// PublishError wraps a failed or timed-out send. The reference CLI treats it
// as fatal for the run; retry is a caller decision.
type PublishError struct {
	Op  string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish: %s: %v", e.Op, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// DeliveryReceipt is the broker's acknowledgment of one send.
type DeliveryReceipt struct {
	Partition int
	Offset    int64
}

// Publisher sends envelopes to the proof topic, keyed by identifier so that
// all envelopes sharing an identifier land in the same partition. One
// in-flight send at a time; the connection is owned by a single publishing
// task.
type Publisher struct {
	mu         sync.Mutex
	client     *kafkago.Client
	transport  *kafkago.Transport
	balancer   kafkago.Balancer
	partitions []int
	timeout    time.Duration
	log        *logger.Logger
}

// NewPublisher opens an authenticated connection and resolves the topic's
// partition set once.
func NewPublisher(cfg Config, log *logger.Logger) (*Publisher, error) {
	cfg = cfg.normalized()

	transport, err := cfg.transport()
	if err != nil {
		return nil, &PublishError{Op: "configure transport", Err: err}
	}

	client := &kafkago.Client{
		Addr:      kafkago.TCP(cfg.Brokers...),
		Transport: transport,
		Timeout:   cfg.MessageTimeout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MessageTimeout)
	defer cancel()

	meta, err := client.Metadata(ctx, &kafkago.MetadataRequest{Topics: []string{Topic}})
	if err != nil {
		transport.CloseIdleConnections()
		return nil, &PublishError{Op: "fetch metadata", Err: err}
	}

	var partitions []int
	for _, topic := range meta.Topics {
		if topic.Name != Topic {
			continue
		}
		if topic.Error != nil {
			transport.CloseIdleConnections()
			return nil, &PublishError{Op: "resolve topic", Err: topic.Error}
		}
		for _, p := range topic.Partitions {
			partitions = append(partitions, p.ID)
		}
	}
	if len(partitions) == 0 {
		transport.CloseIdleConnections()
		return nil, &PublishError{Op: "resolve topic", Err: fmt.Errorf("topic %q has no partitions", Topic)}
	}
	sort.Ints(partitions)

	log.Infof("publisher connected to %v, topic %s has %d partition(s)", cfg.Brokers, Topic, len(partitions))

	return &Publisher{
		client:     client,
		transport:  transport,
		balancer:   &kafkago.Hash{},
		partitions: partitions,
		timeout:    cfg.MessageTimeout,
		log:        log,
	}, nil
}

// partitionFor routes a partition key deterministically onto the resolved
// partition set.
func (p *Publisher) partitionFor(key []byte) int {
	return p.balancer.Balance(kafkago.Message{Key: key}, p.partitions...)
}

// Publish serializes the envelope and sends it, blocking until the broker
// acknowledges with a partition and offset or the message timeout elapses.
func (p *Publisher) Publish(ctx context.Context, env *envelope.Envelope) (DeliveryReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	payload, err := envelope.Encode(env)
	if err != nil {
		return DeliveryReceipt{}, &PublishError{Op: "encode envelope", Err: err}
	}

	key := []byte(env.Identifier)
	partition := p.partitionFor(key)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Produce(ctx, &kafkago.ProduceRequest{
		Topic:        Topic,
		Partition:    partition,
		RequiredAcks: kafkago.RequireAll,
		Records: kafkago.NewRecordReader(kafkago.Record{
			Key:   kafkago.NewBytes(key),
			Value: kafkago.NewBytes(payload),
		}),
	})
	if err != nil {
		return DeliveryReceipt{}, &PublishError{Op: "produce", Err: err}
	}
	if resp.Error != nil {
		return DeliveryReceipt{}, &PublishError{Op: "produce", Err: resp.Error}
	}

	receipt := DeliveryReceipt{Partition: partition, Offset: resp.BaseOffset}
	p.log.Infof("message sent to partition %d at offset %d", receipt.Partition, receipt.Offset)
	return receipt, nil
}

// Close releases the connection. The publisher must not be used afterwards.
func (p *Publisher) Close() {
	p.transport.CloseIdleConnections()
}
