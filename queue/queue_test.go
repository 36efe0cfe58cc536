package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFIFO(t *testing.T) {
	q := NewMemory(4)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Job{TaskID: "a"}))
	require.NoError(t, q.Enqueue(ctx, Job{TaskID: "b"}))

	first, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "a", first.TaskID)

	second, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "b", second.TaskID)
}

func TestMemoryDequeueTimeout(t *testing.T) {
	q := NewMemory(1)

	job, err := q.Dequeue(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestMemoryFull(t *testing.T) {
	q := NewMemory(1)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Job{TaskID: "a"}))
	assert.ErrorIs(t, q.Enqueue(ctx, Job{TaskID: "b"}), ErrFull)
}

func TestMemoryDequeueCancelled(t *testing.T) {
	q := NewMemory(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Dequeue(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
