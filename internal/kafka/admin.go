package kafka

import (
	"context"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
)

// Admin manages topics on the cluster. Used by the kafka-admin CLI only.
type Admin struct {
	client    *kafkago.Client
	transport *kafkago.Transport
}

// TopicInfo describes one topic's layout.
type TopicInfo struct {
	Name       string
	Partitions int
}

func NewAdmin(cfg Config) (*Admin, error) {
	cfg = cfg.normalized()

	transport, err := cfg.transport()
	if err != nil {
		return nil, err
	}
	return &Admin{
		client: &kafkago.Client{
			Addr:      kafkago.TCP(cfg.Brokers...),
			Transport: transport,
			Timeout:   cfg.MessageTimeout,
		},
		transport: transport,
	}, nil
}

// ListTopics returns every topic visible to the client.
func (a *Admin) ListTopics(ctx context.Context) ([]TopicInfo, error) {
	meta, err := a.client.Metadata(ctx, &kafkago.MetadataRequest{})
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}

	topics := make([]TopicInfo, 0, len(meta.Topics))
	for _, topic := range meta.Topics {
		if topic.Error != nil {
			continue
		}
		topics = append(topics, TopicInfo{Name: topic.Name, Partitions: len(topic.Partitions)})
	}
	return topics, nil
}

// TopicExists checks whether a topic is present on the cluster.
func (a *Admin) TopicExists(ctx context.Context, name string) (bool, error) {
	topics, err := a.ListTopics(ctx)
	if err != nil {
		return false, err
	}
	for _, topic := range topics {
		if topic.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateTopic creates a topic with the given layout.
func (a *Admin) CreateTopic(ctx context.Context, name string, partitions, replicationFactor int) error {
	resp, err := a.client.CreateTopics(ctx, &kafkago.CreateTopicsRequest{
		Topics: []kafkago.TopicConfig{{
			Topic:             name,
			NumPartitions:     partitions,
			ReplicationFactor: replicationFactor,
		}},
	})
	if err != nil {
		return fmt.Errorf("create topic %s: %w", name, err)
	}
	if topicErr := resp.Errors[name]; topicErr != nil {
		return fmt.Errorf("create topic %s: %w", name, topicErr)
	}
	return nil
}

// DescribeTopic returns per-partition leader placement for one topic.
func (a *Admin) DescribeTopic(ctx context.Context, name string) (map[int]string, error) {
	meta, err := a.client.Metadata(ctx, &kafkago.MetadataRequest{Topics: []string{name}})
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}

	for _, topic := range meta.Topics {
		if topic.Name != name {
			continue
		}
		if topic.Error != nil {
			return nil, fmt.Errorf("topic %s: %w", name, topic.Error)
		}
		leaders := make(map[int]string, len(topic.Partitions))
		for _, p := range topic.Partitions {
			leaders[p.ID] = fmt.Sprintf("%s:%d", p.Leader.Host, p.Leader.Port)
		}
		return leaders, nil
	}
	return nil, fmt.Errorf("topic %s not found", name)
}

func (a *Admin) Close() {
	a.transport.CloseIdleConnections()
}
