package tracking

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	usageQueuePrefix = "usage_queue:"
	idleQueuePrefix  = "idle_queue:"

	// maxDrainBatch bounds a single drain so a flooded queue cannot hold a
	// request open indefinitely; the remainder is picked up by the next call.
	maxDrainBatch = 5000
)

// UsagePayload is the JSON shape clients push for one app observation.
type UsagePayload struct {
	Event     string `json:"event"`
	App       string `json:"app"`
	Duration  int64  `json:"duration"`
	Timestamp string `json:"timestamp"`
}

// IdlePayload is the JSON shape clients push for one idle interval.
type IdlePayload struct {
	Event   string `json:"event"`
	Seconds int64  `json:"seconds"`
}

// EventBuffer is the transient per-employee staging area for client reports.
// It preserves FIFO order within one employee's queue and performs no
// deduplication; repeated submissions become repeated durable records
// downstream. It is not a durable log.
//
//go:generate mockgen -source=buffer.go -destination=mock/buffer_mock.go -package=mock
type EventBuffer interface {
	EnqueueUsage(ctx context.Context, employeeID string, raw []byte) error
	EnqueueIdle(ctx context.Context, employeeID string, raw []byte) error
	DrainUsage(ctx context.Context, employeeID string) ([]string, error)
	DrainIdle(ctx context.Context, employeeID string) ([]string, error)
}

type redisEventBuffer struct {
	rdb *redis.Client
}

func NewRedisEventBuffer(rdb *redis.Client) EventBuffer {
	return &redisEventBuffer{rdb: rdb}
}

func UsageQueueKey(employeeID string) string {
	return usageQueuePrefix + employeeID
}

func IdleQueueKey(employeeID string) string {
	return idleQueuePrefix + employeeID
}

func (b *redisEventBuffer) EnqueueUsage(ctx context.Context, employeeID string, raw []byte) error {
	return b.rdb.RPush(ctx, UsageQueueKey(employeeID), raw).Err()
}

func (b *redisEventBuffer) EnqueueIdle(ctx context.Context, employeeID string, raw []byte) error {
	return b.rdb.RPush(ctx, IdleQueueKey(employeeID), raw).Err()
}

func (b *redisEventBuffer) DrainUsage(ctx context.Context, employeeID string) ([]string, error) {
	return b.drain(ctx, UsageQueueKey(employeeID))
}

func (b *redisEventBuffer) DrainIdle(ctx context.Context, employeeID string) ([]string, error) {
	return b.drain(ctx, IdleQueueKey(employeeID))
}

// drain pops from the head until the queue reports empty. Items pushed
// concurrently with an in-progress drain may land in this batch or the next
// one; the buffer itself never loses or duplicates an item.
func (b *redisEventBuffer) drain(ctx context.Context, key string) ([]string, error) {
	var items []string
	for len(items) < maxDrainBatch {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		msg, err := b.rdb.LPop(ctx, key).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return items, fmt.Errorf("lpop %s: %w", key, err)
		}
		items = append(items, msg)
	}
	return items, nil
}
