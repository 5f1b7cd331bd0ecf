package kafka

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/Atamanov/solana-stub-prover/pkg/logger"
)

// Probe dials the cluster and lists its brokers, as a pre-flight check
// before starting a long-lived subscriber. The client id is unique per probe
// so repeated checks never collide.
func Probe(ctx context.Context, cfg Config, log *logger.Logger) error {
	cfg = cfg.normalized()

	transport, err := cfg.transport()
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	transport.ClientID = "connection-test-" + uuid.NewString()
	defer transport.CloseIdleConnections()

	client := &kafkago.Client{
		Addr:      kafkago.TCP(cfg.Brokers...),
		Transport: transport,
		Timeout:   cfg.MessageTimeout,
	}

	meta, err := client.Metadata(ctx, &kafkago.MetadataRequest{})
	if err != nil {
		return fmt.Errorf("probe: fetch metadata from %v: %w", cfg.Brokers, err)
	}

	log.Infof("connected, cluster has %d broker(s)", len(meta.Brokers))
	for _, broker := range meta.Brokers {
		log.Infof("broker %d: %s:%d", broker.ID, broker.Host, broker.Port)
	}
	return nil
}
