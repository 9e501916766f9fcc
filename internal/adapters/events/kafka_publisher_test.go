package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisherTopics(t *testing.T) {
	t.Parallel()

	_, err := NewKafkaPublisher(nil, DefaultTopics)
	require.Error(t, err)

	pub, err := NewKafkaPublisher([]string{"localhost:9092"}, DefaultTopics)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	assert.Equal(t, "storefront.order.placed.v1", pub.topicFor("order.placed"))
	assert.Equal(t, "inventory.adjusted", pub.topicFor("inventory.adjusted"))
}
