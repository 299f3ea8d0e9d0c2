package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopOrder(t *testing.T) {
	q := NewInMemoryQueue()

	require.NoError(t, q.Push(&Task{ID: "1", URL: "https://www.amazon.in/dp/A"}))
	require.NoError(t, q.Push(&Task{ID: "2", URL: "https://www.amazon.in/dp/B"}))
	assert.Equal(t, 2, q.Size())

	ctx := context.Background()
	task, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", task.ID)

	task, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", task.ID)
	assert.Equal(t, 0, q.Size())
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := NewInMemoryQueue()

	got := make(chan *Task, 1)
	go func() {
		task, err := q.Pop(context.Background())
		if err == nil {
			got <- task
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Push(&Task{ID: "late"}))

	select {
	case task := <-got:
		assert.Equal(t, "late", task.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("Pop did not wake up after Push")
	}
}

func TestPopContextCancel(t *testing.T) {
	q := NewInMemoryQueue()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The queue stays usable: a canceled Pop must not leak the lock.
	require.NoError(t, q.Push(&Task{ID: "after"}))
	task, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "after", task.ID)
}

func TestPopContextCancelRepeated(t *testing.T) {
	q := NewInMemoryQueue()

	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() {
			_, err := q.Pop(ctx)
			errc <- err
		}()
		cancel()

		select {
		case err := <-errc:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("Pop did not return after cancel")
		}
	}

	require.NoError(t, q.Push(&Task{ID: "1"}))
	task, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", task.ID)
}

func TestCloseDrainsThenFails(t *testing.T) {
	q := NewInMemoryQueue()
	require.NoError(t, q.Push(&Task{ID: "1"}))
	require.NoError(t, q.Close())

	// Buffered tasks survive Close.
	task, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", task.ID)

	_, err = q.Pop(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)

	assert.ErrorIs(t, q.Push(&Task{ID: "2"}), ErrQueueClosed)
}

func TestCloseWakesBlockedPop(t *testing.T) {
	q := NewInMemoryQueue()

	errc := make(chan error, 1)
	go func() {
		_, err := q.Pop(context.Background())
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Close())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Pop did not wake up after Close")
	}
}
