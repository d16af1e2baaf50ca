package tracking_test

import (
	"context"
	"testing"

	"github.com/coding-cat0-0/tracker/internal/tracking"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupBuffer(t *testing.T) tracking.EventBuffer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return tracking.NewRedisEventBuffer(rdb)
}

func TestRedisEventBuffer_FIFOOrder(t *testing.T) {
	ctx := context.Background()
	buffer := setupBuffer(t)
	employeeID := uuid.New().String()

	payloads := []string{
		`{"event":"usage","app":"editor","duration":30,"timestamp":"2026-08-30T09:00:00Z"}`,
		`{"event":"usage","app":"browser","duration":45,"timestamp":"2026-08-30T09:01:00Z"}`,
		`{"event":"usage","app":"terminal","duration":15,"timestamp":"2026-08-30T09:02:00Z"}`,
	}
	for _, p := range payloads {
		assert.NoError(t, buffer.EnqueueUsage(ctx, employeeID, []byte(p)))
	}

	drained, err := buffer.DrainUsage(ctx, employeeID)
	assert.NoError(t, err)
	assert.Equal(t, payloads, drained)
}

func TestRedisEventBuffer_DrainEmptiesQueue(t *testing.T) {
	ctx := context.Background()
	buffer := setupBuffer(t)
	employeeID := uuid.New().String()

	assert.NoError(t, buffer.EnqueueUsage(ctx, employeeID, []byte(`{"event":"usage"}`)))

	first, err := buffer.DrainUsage(ctx, employeeID)
	assert.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := buffer.DrainUsage(ctx, employeeID)
	assert.NoError(t, err)
	assert.Empty(t, second)
}

func TestRedisEventBuffer_QueuesAreIndependent(t *testing.T) {
	ctx := context.Background()
	buffer := setupBuffer(t)
	alice := uuid.New().String()
	bob := uuid.New().String()

	assert.NoError(t, buffer.EnqueueUsage(ctx, alice, []byte(`{"event":"usage","app":"editor"}`)))
	assert.NoError(t, buffer.EnqueueIdle(ctx, alice, []byte(`{"event":"idle","seconds":60}`)))
	assert.NoError(t, buffer.EnqueueUsage(ctx, bob, []byte(`{"event":"usage","app":"browser"}`)))

	aliceUsage, err := buffer.DrainUsage(ctx, alice)
	assert.NoError(t, err)
	assert.Len(t, aliceUsage, 1)
	assert.Contains(t, aliceUsage[0], "editor")

	// Draining Alice's usage queue must leave her idle queue and Bob's
	// usage queue untouched.
	aliceIdle, err := buffer.DrainIdle(ctx, alice)
	assert.NoError(t, err)
	assert.Len(t, aliceIdle, 1)

	bobUsage, err := buffer.DrainUsage(ctx, bob)
	assert.NoError(t, err)
	assert.Len(t, bobUsage, 1)
	assert.Contains(t, bobUsage[0], "browser")
}

func TestRedisEventBuffer_CancelledContext(t *testing.T) {
	buffer := setupBuffer(t)
	employeeID := uuid.New().String()

	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, buffer.EnqueueUsage(ctx, employeeID, []byte(`{"event":"usage"}`)))
	cancel()

	_, err := buffer.DrainUsage(ctx, employeeID)
	assert.ErrorIs(t, err, context.Canceled)
}
