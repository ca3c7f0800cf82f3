package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewQueue(client, "queue")
}

func TestQueueFIFO(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "jobs", []byte("first")))
	require.NoError(t, q.Enqueue(ctx, "jobs", []byte("second")))

	payload, err := q.Dequeue(ctx, "jobs", time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), payload)

	payload, err = q.Dequeue(ctx, "jobs", time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), payload)
}

func TestQueueDequeueTimeout(t *testing.T) {
	q := newTestQueue(t)

	payload, err := q.Dequeue(context.Background(), "jobs", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, payload)
}
