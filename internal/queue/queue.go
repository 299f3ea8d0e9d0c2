package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrQueueEmpty  = errors.New("queue is empty")
	ErrQueueClosed = errors.New("queue is closed")
)

// Task is one scrape run waiting to be picked up by a batch worker.
type Task struct {
	ID        string
	URL       string
	MaxPages  int
	Index     int
	CreatedAt time.Time
}

type Queue interface {
	Push(task *Task) error
	Pop(ctx context.Context) (*Task, error)
	Size() int
	Close() error
}

type InMemoryQueue struct {
	tasks  []*Task
	mu     sync.Mutex
	cond   *sync.Cond
	closed bool
}

func NewInMemoryQueue() *InMemoryQueue {
	q := &InMemoryQueue{
		tasks: make([]*Task, 0),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *InMemoryQueue) Push(task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.tasks = append(q.tasks, task)
	q.cond.Signal()

	return nil
}

// Pop blocks until a task is available, the queue is drained after Close, or
// the context is canceled.
func (q *InMemoryQueue) Pop(ctx context.Context) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 && !q.closed {
		done := make(chan struct{})
		go func() {
			q.cond.Wait()
			close(done)
		}()

		select {
		case <-ctx.Done():
			// The waiter must re-acquire the mutex before the deferred
			// unlock runs, so wake it and wait for it to come back.
			q.cond.Broadcast()
			<-done
			return nil, ctx.Err()
		case <-done:
		}
	}

	if len(q.tasks) == 0 {
		if q.closed {
			return nil, ErrQueueClosed
		}
		return nil, ErrQueueEmpty
	}

	task := q.tasks[0]
	q.tasks = q.tasks[1:]

	return task, nil
}

func (q *InMemoryQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()

	return nil
}
