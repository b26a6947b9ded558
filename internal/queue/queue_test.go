package queue

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(srv.Close)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, "test:jobs"), srv
}

func TestEnqueueDequeueRoundTrip(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	task := Task{JobID: "job-1", WorkspacePath: "runs/sim_job-1"}
	require.NoError(t, q.Enqueue(ctx, task))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, ok, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, task, *got)
}

func TestDequeuePreservesFIFOOrder(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Task{JobID: "first"}))
	require.NoError(t, q.Enqueue(ctx, Task{JobID: "second"}))

	got, ok, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "first", got.JobID)

	got, ok, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second", got.JobID)
}

func TestDequeueEmptyTimesOut(t *testing.T) {
	q, _ := newTestQueue(t)

	got, ok, err := q.Dequeue(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)
}

func TestEnqueueBrokerDown(t *testing.T) {
	q, srv := newTestQueue(t)
	srv.Close()

	err := q.Enqueue(context.Background(), Task{JobID: "job-1"})
	require.Error(t, err)
}
