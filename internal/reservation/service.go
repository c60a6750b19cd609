package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"easydrive/internal/database"
	"easydrive/internal/domain"
	"easydrive/internal/events"
	"easydrive/internal/identity"
	"easydrive/internal/metrics"
	"easydrive/internal/models"

	"github.com/rs/zerolog"
)

type Service struct {
	store          domain.ReservationStore
	cars           domain.CarStore
	accounts       domain.AccountStore
	notifier       domain.Notifier
	eventBus       domain.EventPublisher
	locks          *carLocks
	maxBookingDays int
	lockTimeout    time.Duration
	logger         *zerolog.Logger
}

func NewService(
	store domain.ReservationStore,
	cars domain.CarStore,
	accounts domain.AccountStore,
	notifier domain.Notifier,
	eventBus domain.EventPublisher,
	maxBookingDays int,
	lockTimeout time.Duration,
	logger *zerolog.Logger,
) *Service {
	if maxBookingDays <= 0 {
		maxBookingDays = models.DefaultMaxBookingDays
	}
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &Service{
		store:          store,
		cars:           cars,
		accounts:       accounts,
		notifier:       notifier,
		eventBus:       eventBus,
		locks:          newCarLocks(),
		maxBookingDays: maxBookingDays,
		lockTimeout:    lockTimeout,
		logger:         logger,
	}
}

// BookingRequest carries the fields a caller supplies to book a car.
// GuestEmail is required for unauthenticated callers and ignored for
// registered ones.
type BookingRequest struct {
	CarID           int64
	GuestEmail      string
	PickupLocation  string
	DropoffLocation string
	StartDate       time.Time
	EndDate         time.Time
}

// RequestBooking books a car for the caller. Registered callers get a firm
// reservation that displaces overlapping pending soft holds on the same car;
// guests get a soft reservation that coexists with everything.
func (s *Service) RequestBooking(ctx context.Context, caller identity.Caller, req BookingRequest) (*models.Reservation, error) {
	if err := s.validateWindow(req.StartDate, req.EndDate); err != nil {
		metrics.IncBooking("rejected")
		return nil, err
	}

	res := &models.Reservation{
		CarID:           req.CarID,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Status:          models.StatusPending,
	}

	if caller.Authenticated {
		res.Type = models.TypeFirm
		res.AccountID = caller.AccountID
	} else {
		email := strings.TrimSpace(req.GuestEmail)
		if email == "" || !strings.Contains(email, "@") {
			metrics.IncBooking("rejected")
			return nil, validationf("a valid guest email is required to book without an account")
		}
		res.Type = models.TypeSoft
		res.GuestEmail = email
	}

	car, err := s.cars.GetCar(ctx, req.CarID)
	if err != nil {
		metrics.IncBooking("rejected")
		if errors.Is(err, database.ErrNotFound) {
			return nil, validationf("car %d does not exist", req.CarID)
		}
		return nil, err
	}
	if car.Status == models.CarUnavailable {
		metrics.IncBooking("rejected")
		return nil, conflictf("car %d is not available for booking", car.ID)
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	if err := s.locks.acquire(lockCtx, res.CarID); err != nil {
		metrics.IncBooking("contention")
		return nil, err
	}
	defer s.locks.release(res.CarID)

	if res.Type == models.TypeFirm {
		if err := s.resolveFirm(ctx, res, car); err != nil {
			metrics.IncBooking("failed")
			return nil, mapStoreErr(err)
		}
	} else {
		if err := s.store.CreateReservation(ctx, res); err != nil {
			metrics.IncBooking("failed")
			return nil, mapStoreErr(err)
		}
	}

	metrics.IncBooking("created")
	s.logger.Info().
		Str("reservation_id", res.ID).
		Int64("car_id", res.CarID).
		Str("type", res.Type).
		Msg("reservation created")

	s.publish(events.EventReservationCreated, res, caller)
	return res, nil
}

func (s *Service) GetReservation(ctx context.Context, caller identity.Caller, id string) (*models.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !caller.CanAccess(res) {
		return nil, forbiddenf("reservation %s belongs to someone else", id)
	}
	return res, nil
}

// ListReservations returns reservations visible to the caller. Non-admin
// callers are always scoped to their own records regardless of the filter.
func (s *Service) ListReservations(ctx context.Context, caller identity.Caller, filter database.ReservationFilter) ([]*models.Reservation, error) {
	if !caller.Admin {
		switch {
		case caller.Authenticated:
			filter.AccountID = caller.AccountID
			filter.GuestEmail = ""
		case caller.Email != "":
			filter.AccountID = 0
			filter.GuestEmail = caller.Email
		default:
			return nil, forbiddenf("listing reservations requires an account or a guest email")
		}
	}
	return s.store.ListReservations(ctx, filter)
}

// UpdateRequest carries a partial reservation edit. Nil fields keep their
// current values. Version must match the stored record.
type UpdateRequest struct {
	PickupLocation  *string
	DropoffLocation *string
	StartDate       *time.Time
	EndDate         *time.Time
	Status          *string
	Version         int64
}

// UpdateReservation applies a holder or admin edit. Holder edits always land
// in the modified status; only admins may pick a status explicitly.
func (s *Service) UpdateReservation(ctx context.Context, caller identity.Caller, id string, req UpdateRequest) (*models.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !caller.CanAccess(res) {
		return nil, forbiddenf("reservation %s belongs to someone else", id)
	}
	if terminal(res.Status) {
		return nil, conflictf("reservation is %s and cannot change", res.Status)
	}

	oldStatus := res.Status

	if req.PickupLocation != nil {
		res.PickupLocation = *req.PickupLocation
	}
	if req.DropoffLocation != nil {
		res.DropoffLocation = *req.DropoffLocation
	}
	if req.StartDate != nil {
		res.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		res.EndDate = *req.EndDate
	}
	if req.StartDate != nil || req.EndDate != nil {
		if err := s.validateWindow(res.StartDate, res.EndDate); err != nil {
			return nil, err
		}
	}

	if caller.Admin {
		if req.Status != nil {
			if err := validateTransition(oldStatus, *req.Status, caller); err != nil {
				return nil, err
			}
			res.Status = *req.Status
		}
	} else {
		// Holder edits always go back through review, whatever status the
		// request carried. Even re-submitting the current one lands here.
		res.Status = models.StatusModified
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	if err := s.locks.acquire(lockCtx, res.CarID); err != nil {
		return nil, err
	}
	defer s.locks.release(res.CarID)

	if err := s.store.UpdateReservationWithVersion(ctx, res, req.Version); err != nil {
		return nil, mapStoreErr(err)
	}
	res.Version = req.Version + 1

	s.notifyStatus(ctx, res, oldStatus, res.Status)
	s.publish(events.EventReservationUpdated, res, caller)
	return res, nil
}

// ConfirmReservation marks a pending reservation confirmed. Staff only.
func (s *Service) ConfirmReservation(ctx context.Context, caller identity.Caller, id string, version int64) (*models.Reservation, error) {
	if !caller.Admin {
		return nil, forbiddenf("confirming reservations requires staff access")
	}
	return s.setStatus(ctx, caller, id, version, models.StatusConfirmed, events.EventReservationUpdated)
}

// CancelReservation cancels a non-terminal reservation on behalf of its
// holder or an admin.
func (s *Service) CancelReservation(ctx context.Context, caller identity.Caller, id string, version int64) (*models.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !caller.CanAccess(res) {
		return nil, forbiddenf("reservation %s belongs to someone else", id)
	}
	return s.setStatus(ctx, caller, id, version, models.StatusCancelled, events.EventReservationCanceled)
}

func (s *Service) setStatus(ctx context.Context, caller identity.Caller, id string, version int64, status, eventType string) (*models.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if err := validateTransition(res.Status, status, caller); err != nil {
		return nil, err
	}

	oldStatus := res.Status
	if oldStatus == status {
		return res, nil
	}

	if err := s.store.UpdateReservationStatusWithVersion(ctx, id, version, status); err != nil {
		return nil, mapStoreErr(err)
	}
	res.Status = status
	res.Version = version + 1

	s.notifyStatus(ctx, res, oldStatus, status)
	s.publish(eventType, res, caller)
	return res, nil
}

func (s *Service) validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return validationf("start and end dates are required")
	}
	if end.Before(start) {
		return validationf("end date must not be before start date")
	}

	today := time.Now().Truncate(24 * time.Hour)
	if start.Before(today) && end.Before(today) {
		return validationf("booking window is entirely in the past")
	}

	if int(end.Sub(start).Hours()/24)+1 > s.maxBookingDays {
		return validationf("booking cannot exceed %d days", s.maxBookingDays)
	}
	return nil
}

// notifyStatus fans a status change out to the holder, best effort. Missing
// car or account rows degrade the email body, never the booking.
func (s *Service) notifyStatus(ctx context.Context, res *models.Reservation, oldStatus, newStatus string) {
	if s.notifier == nil {
		return
	}
	car, err := s.cars.GetCar(ctx, res.CarID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("car_id", res.CarID).Msg("notify: car lookup failed")
	}
	var account *models.Account
	if res.AccountID != 0 {
		if account, err = s.accounts.GetAccount(ctx, res.AccountID); err != nil {
			s.logger.Warn().Err(err).Int64("account_id", res.AccountID).Msg("notify: account lookup failed")
		}
	}
	s.notifier.StatusChanged(ctx, res, car, account, oldStatus, newStatus)
}

func (s *Service) publish(eventType string, res *models.Reservation, caller identity.Caller) {
	if s.eventBus == nil {
		return
	}

	changedBy := "guest"
	if caller.Admin {
		changedBy = "admin"
	} else if caller.Authenticated {
		changedBy = "account"
	}

	payload := events.ReservationEventPayload{
		ReservationID: res.ID,
		AccountID:     res.AccountID,
		GuestEmail:    res.GuestEmail,
		CarID:         res.CarID,
		Type:          res.Type,
		Status:        res.Status,
		StartDate:     res.StartDate,
		EndDate:       res.EndDate,
		ChangedBy:     changedBy,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("reservation_id", res.ID).Msg("publish event error")
	}
}
