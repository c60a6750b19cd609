package worker

import (
	"context"
	"time"

	"easydrive/internal/domain"
	"easydrive/internal/metrics"
	"easydrive/internal/notify"

	"github.com/rs/zerolog"
)

// MailWorker drains the notification queue and hands events to the mailer.
// Delivery is retried with backoff; events that exhaust their retries land in
// the dead-letter list for manual inspection.
type MailWorker struct {
	queue       domain.NotificationQueue
	mailer      domain.Mailer
	retryPolicy RetryPolicy
	pollTimeout time.Duration
	logger      *zerolog.Logger
}

func NewMailWorker(queue domain.NotificationQueue, mailer domain.Mailer, retry RetryPolicy, pollTimeout time.Duration, logger *zerolog.Logger) *MailWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if pollTimeout <= 0 {
		pollTimeout = 2 * time.Second
	}

	return &MailWorker{
		queue:       queue,
		mailer:      mailer,
		retryPolicy: retry,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Start runs the delivery loop until ctx is done.
func (w *MailWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("mail worker started")
	defer w.logger.Info().Msg("mail worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		event, err := w.queue.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error().Err(err).Msg("mail worker: dequeue failed")
			time.Sleep(w.pollTimeout)
			continue
		}
		if event == nil {
			continue
		}

		w.deliver(ctx, event)
	}
}

func (w *MailWorker) deliver(ctx context.Context, event *notify.Event) {
	var lastErr error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		lastErr = w.mailer.SendMail(ctx, event.Recipient, event.Subject, event.Body)
		if lastErr == nil {
			metrics.IncNotification("delivered")
			w.logger.Debug().
				Str("event_id", event.ID).
				Str("template", event.TemplateKey).
				Msg("notification delivered")
			return
		}

		if attempt < w.retryPolicy.MaxRetries {
			select {
			case <-time.After(w.retryPolicy.NextDelay(attempt)):
			case <-ctx.Done():
				return
			}
		}
	}

	metrics.IncNotification("dead_lettered")
	w.logger.Error().Err(lastErr).
		Str("event_id", event.ID).
		Str("recipient", event.Recipient).
		Msg("notification delivery exhausted retries")
	if err := w.queue.DeadLetter(ctx, event); err != nil {
		w.logger.Error().Err(err).Str("event_id", event.ID).Msg("dead-letter push failed")
	}
}
