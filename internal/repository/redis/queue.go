package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Queue is a Redis-list backed job queue with at-least-once delivery.
// Jobs survive process restarts but a worker crash mid-job loses that job;
// retry policy belongs to the consumer.
type Queue struct {
	client redis.UniversalClient
	prefix string
}

func NewQueue(client redis.UniversalClient, prefix string) *Queue {
	if prefix == "" {
		prefix = "queue"
	}
	return &Queue{client: client, prefix: prefix}
}

func (q *Queue) key(queue string) string {
	return q.prefix + ":" + queue
}

func (q *Queue) Enqueue(ctx context.Context, queue string, payload []byte) error {
	return q.client.LPush(ctx, q.key(queue), payload).Err()
}

// Dequeue blocks up to timeout for the next job. A nil payload with nil
// error means the timeout elapsed with nothing to consume.
func (q *Queue) Dequeue(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key(queue)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP returns [key, value]
	if len(res) != 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}
