package queue

import (
	"context"
	"sync/atomic"
	"time"

	"easydrive/internal/domain"
	"easydrive/internal/notify"

	"github.com/rs/zerolog"
)

// FailoverQueue prefers the primary queue and drops to the fallback when the
// primary errors out. The primary is retried after a minute. Request handlers
// and the mail worker share one instance, so the down state is all atomics.
type FailoverQueue struct {
	primary   domain.NotificationQueue
	fallback  domain.NotificationQueue
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos
}

func NewFailoverQueue(primary, fallback domain.NotificationQueue, logger *zerolog.Logger) *FailoverQueue {
	return &FailoverQueue{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (q *FailoverQueue) markDown(err error) {
	q.logger.Error().Err(err).Msg("primary notification queue failed, falling back to memory")
	q.isDown.Store(true)
	q.lastCheck.Store(time.Now().UnixNano())
}

func (q *FailoverQueue) retryDue() bool {
	return q.isDown.Load() && time.Since(time.Unix(0, q.lastCheck.Load())) > time.Minute
}

func (q *FailoverQueue) Enqueue(ctx context.Context, event *notify.Event) error {
	if !q.isDown.Load() {
		err := q.primary.Enqueue(ctx, event)
		if err == nil {
			return nil
		}
		q.markDown(err)
	}

	if q.retryDue() {
		err := q.primary.Enqueue(ctx, event)
		if err == nil {
			q.isDown.Store(false)
			return nil
		}
		q.lastCheck.Store(time.Now().UnixNano())
	}

	return q.fallback.Enqueue(ctx, event)
}

func (q *FailoverQueue) Dequeue(ctx context.Context, timeout time.Duration) (*notify.Event, error) {
	if !q.isDown.Load() {
		event, err := q.primary.Dequeue(ctx, timeout)
		if err == nil {
			if event != nil {
				return event, nil
			}
			// primary was empty, drain anything stranded in the fallback
			return q.fallback.Dequeue(ctx, time.Millisecond)
		}
		q.markDown(err)
	}

	if q.retryDue() {
		event, err := q.primary.Dequeue(ctx, timeout)
		if err == nil {
			q.isDown.Store(false)
			if event != nil {
				return event, nil
			}
			return q.fallback.Dequeue(ctx, time.Millisecond)
		}
		q.lastCheck.Store(time.Now().UnixNano())
	}

	return q.fallback.Dequeue(ctx, timeout)
}

func (q *FailoverQueue) DeadLetter(ctx context.Context, event *notify.Event) error {
	if !q.isDown.Load() {
		err := q.primary.DeadLetter(ctx, event)
		if err == nil {
			return nil
		}
		q.markDown(err)
	}

	return q.fallback.DeadLetter(ctx, event)
}

func (q *FailoverQueue) Len(ctx context.Context) (int64, error) {
	if !q.isDown.Load() {
		n, err := q.primary.Len(ctx)
		if err == nil {
			return n, nil
		}
		q.markDown(err)
	}

	return q.fallback.Len(ctx)
}
