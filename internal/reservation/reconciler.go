package reservation

import (
	"context"
	"encoding/json"
	"errors"

	"easydrive/internal/database"
	"easydrive/internal/domain"
	"easydrive/internal/events"
	"easydrive/internal/models"

	"github.com/rs/zerolog"
)

// Reconciler converts guest-held soft reservations into firm ones when an
// account registers with a matching email. Each reservation converts
// independently; one lost race does not block the rest, and replaying the
// same account event is a no-op because converted records stop matching.
type Reconciler struct {
	store    domain.ReservationStore
	cars     domain.CarStore
	accounts domain.AccountStore
	notifier domain.Notifier
	logger   *zerolog.Logger
}

func NewReconciler(
	store domain.ReservationStore,
	cars domain.CarStore,
	accounts domain.AccountStore,
	notifier domain.Notifier,
	logger *zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		store:    store,
		cars:     cars,
		accounts: accounts,
		notifier: notifier,
		logger:   logger,
	}
}

// Subscribe wires the reconciler to account creation events on the bus.
func (r *Reconciler) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventAccountCreated, func(event *events.Event) error {
		var payload events.AccountCreatedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			r.logger.Error().Err(err).Msg("reconciler: bad account event payload")
			return err
		}
		_, err := r.OnAccountCreated(context.Background(), payload.AccountID, payload.Email)
		return err
	})
}

// OnAccountCreated links every unconverted soft reservation held under the
// account's email and returns how many converted.
func (r *Reconciler) OnAccountCreated(ctx context.Context, accountID int64, email string) (int, error) {
	if accountID == 0 || email == "" {
		return 0, validationf("account id and email are required")
	}

	account, err := r.accounts.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, validationf("account %d does not exist", accountID)
		}
		return 0, err
	}

	matches, err := r.store.FindSoftByGuestEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	converted := 0
	for _, res := range matches {
		err := r.store.LinkAccountWithVersion(ctx, res.ID, res.Version, accountID)
		if err != nil {
			// Lost the race to another writer, skip this one.
			if errors.Is(err, database.ErrConcurrentModification) {
				r.logger.Debug().Str("reservation_id", res.ID).Msg("reconciler: reservation changed underneath, skipping")
				continue
			}
			r.logger.Error().Err(err).Str("reservation_id", res.ID).Msg("reconciler: link failed")
			continue
		}

		converted++
		res.AccountID = accountID
		res.GuestEmail = ""
		res.Type = models.TypeFirm
		res.Version++

		if r.notifier != nil {
			car, err := r.cars.GetCar(ctx, res.CarID)
			if err != nil {
				r.logger.Warn().Err(err).Int64("car_id", res.CarID).Msg("reconciler: car lookup failed")
			}
			r.notifier.Converted(ctx, res, car, account)
		}
	}

	if converted > 0 {
		r.logger.Info().
			Int64("account_id", accountID).
			Int("converted", converted).
			Msg("guest reservations linked to account")
	}
	return converted, nil
}
