package kafka

import (
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func testPublisher(partitions []int) *Publisher {
	return &Publisher{
		balancer:   &kafkago.Hash{},
		partitions: partitions,
	}
}

func TestPartitionForIsDeterministic(t *testing.T) {
	p := testPublisher([]int{0, 1, 2, 3})

	key := []byte("solana-stub-100-200")
	first := p.partitionFor(key)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, p.partitionFor(key))
	}
	require.Contains(t, []int{0, 1, 2, 3}, first)
}

func TestPartitionForSinglePartition(t *testing.T) {
	p := testPublisher([]int{0})
	require.Equal(t, 0, p.partitionFor([]byte("any-key")))
}

func TestPublishErrorUnwraps(t *testing.T) {
	cause := errors.New("broker refused")
	err := &PublishError{Op: "produce", Err: cause}

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "produce")
	require.Contains(t, err.Error(), "broker refused")
}
