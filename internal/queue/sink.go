package queue

import (
	"context"

	"easydrive/internal/domain"
	"easydrive/internal/notify"
)

// Sink adapts a notification queue to the dispatcher's sink interface.
type Sink struct {
	Queue domain.NotificationQueue
}

func (s Sink) Send(ctx context.Context, event *notify.Event) error {
	return s.Queue.Enqueue(ctx, event)
}
