package notify

import (
	"context"
	"time"

	"easydrive/internal/metrics"
	"easydrive/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sink accepts outbound notification events. Implementations queue for
// asynchronous delivery; Send must not block past its context.
type Sink interface {
	Send(ctx context.Context, event *Event) error
}

// Dispatcher translates reservation lifecycle transitions into notification
// events. It is the only component that decides who gets told what; it never
// decides how mail moves.
type Dispatcher struct {
	sink   Sink
	logger *zerolog.Logger
}

func NewDispatcher(sink Sink, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{sink: sink, logger: logger}
}

// notifyStatuses are the landings that produce mail.
var notifyStatuses = map[string]bool{
	models.StatusConfirmed:  true,
	models.StatusModified:   true,
	models.StatusCancelled:  true,
	models.StatusOverridden: true,
}

// StatusChanged emits an event when a transition lands in the notify set.
// account is nil for guest-held reservations. Sink errors are logged and
// swallowed: the committed transition is the source of truth and a failed
// notification never unwinds it.
func (d *Dispatcher) StatusChanged(ctx context.Context, res *models.Reservation, car *models.Car, account *models.Account, oldStatus, newStatus string) {
	if oldStatus == newStatus || !notifyStatuses[newStatus] {
		return
	}

	kind := HolderGuest
	if res.Type == models.TypeFirm && account != nil {
		kind = HolderRegistered
	}

	key, tmpl, ok := templateFor(kind, newStatus)
	if !ok {
		return
	}

	fields := buildFields(res, car, account)
	fields.Status = newStatus
	subject, body := tmpl(fields)

	event := &Event{
		ID:          uuid.NewString(),
		Recipient:   recipient(res, account),
		TemplateKey: key,
		Subject:     subject,
		Body:        body,
		Fields:      fields,
		CreatedAt:   time.Now(),
	}
	d.emit(ctx, event, oldStatus, newStatus)
}

// Converted emits the soft-to-firm conversion notice to the new account.
func (d *Dispatcher) Converted(ctx context.Context, res *models.Reservation, car *models.Car, account *models.Account) {
	fields := buildFields(res, car, account)
	fields.Status = res.Status
	subject, body := registeredConverted(fields)

	event := &Event{
		ID:          uuid.NewString(),
		Recipient:   account.Email,
		TemplateKey: KeyConverted,
		Subject:     subject,
		Body:        body,
		Fields:      fields,
		CreatedAt:   time.Now(),
	}
	d.emit(ctx, event, res.Status, res.Status)
}

func (d *Dispatcher) emit(ctx context.Context, event *Event, oldStatus, newStatus string) {
	if event.Recipient == "" {
		d.logger.Warn().
			Str("reservation_id", event.Fields.ReservationID).
			Str("template", event.TemplateKey).
			Msg("notification dropped: no recipient")
		return
	}

	if err := d.sink.Send(ctx, event); err != nil {
		// Best effort only. Log and move on.
		metrics.IncNotification("enqueue_failed")
		d.logger.Error().Err(err).
			Str("reservation_id", event.Fields.ReservationID).
			Str("template", event.TemplateKey).
			Str("recipient", event.Recipient).
			Msg("failed to enqueue notification")
		return
	}

	metrics.IncNotification("enqueued")
	d.logger.Info().
		Str("reservation_id", event.Fields.ReservationID).
		Str("template", event.TemplateKey).
		Str("old_status", oldStatus).
		Str("new_status", newStatus).
		Msg("notification enqueued")
}

func buildFields(res *models.Reservation, car *models.Car, account *models.Account) BodyFields {
	fields := BodyFields{
		ReservationID:   res.ID,
		StartDate:       res.StartDate.Format(models.DateLayout),
		EndDate:         res.EndDate.Format(models.DateLayout),
		PickupLocation:  res.PickupLocation,
		DropoffLocation: res.DropoffLocation,
		Days:            res.Days(),
	}
	if car != nil {
		fields.CarName = car.Name
		fields.CarModel = car.Model
		fields.CarYear = car.Year
		fields.TotalPrice = res.TotalPrice(car.PricePerDay)
	}
	if account != nil {
		fields.FirstName = account.FirstName
	}
	return fields
}

func recipient(res *models.Reservation, account *models.Account) string {
	if res.Type == models.TypeFirm && account != nil {
		return account.Email
	}
	return res.GuestEmail
}
