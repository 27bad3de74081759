package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopologyRetryDeadLettersToTasks(t *testing.T) {
	queues := map[string]binding{}
	for _, b := range topology {
		queues[b.queue] = b
	}
	assert.Len(t, queues, 3)

	retry := queues[QueueRetry]
	assert.Equal(t, ExchangeRetry, retry.exchange)
	assert.Equal(t, ExchangeTasks, retry.args["x-dead-letter-exchange"])
	assert.Equal(t, RoutingTask, retry.args["x-dead-letter-routing-key"])

	assert.Nil(t, queues[QueueTasks].args)
	assert.Equal(t, RoutingDLQ, queues[QueueDLQ].key)
}
