// README: Notification queue backed by a Redis list.
package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Queue buffers events between the transition that produced them and the
// dispatcher that delivers them.
type Queue interface {
	Enqueue(ctx context.Context, e Event) error
	// Dequeue returns the oldest queued event, or nil when the queue is empty.
	Dequeue(ctx context.Context) (*Event, error)
}

type RedisQueue struct {
	redis *redis.Client
	key   string
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{redis: client, key: key}
}

func (q *RedisQueue) Enqueue(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return q.redis.RPush(ctx, q.key, payload).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Event, error) {
	val, err := q.redis.LPop(ctx, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Event
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return nil, err
	}
	return &e, nil
}
