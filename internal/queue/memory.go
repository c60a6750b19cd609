package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"easydrive/internal/models"
	"easydrive/internal/notify"
)

// MemoryQueue is a bounded in-process queue. It backs tests and serves as
// the failover target when Redis is down; events held here are lost on
// restart, which is acceptable for notifications.
type MemoryQueue struct {
	events chan *notify.Event

	mu   sync.Mutex
	dead []*notify.Event
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = models.NotificationQueueSize
	}
	return &MemoryQueue{events: make(chan *notify.Event, capacity)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, event *notify.Event) error {
	select {
	case q.events <- event:
		return nil
	default:
		return fmt.Errorf("notification queue is full")
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (*notify.Event, error) {
	select {
	case event := <-q.events:
		return event, nil
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) DeadLetter(ctx context.Context, event *notify.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, event)
	return nil
}

func (q *MemoryQueue) Len(ctx context.Context) (int64, error) {
	return int64(len(q.events)), nil
}

// DeadLetters returns a snapshot of dead-lettered events.
func (q *MemoryQueue) DeadLetters() []*notify.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*notify.Event, len(q.dead))
	copy(out, q.dead)
	return out
}
