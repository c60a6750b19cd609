package reservation

import (
	"context"

	"easydrive/internal/metrics"
	"easydrive/internal/models"
)

// resolveFirm inserts a firm reservation and demotes every overlapping
// pending soft hold on the same car in one transaction. Caller must hold the
// car lock. Override notifications are enqueued before the commit: a crash
// after the write may duplicate mail, but a displaced hold never goes silent.
func (s *Service) resolveFirm(ctx context.Context, res *models.Reservation, car *models.Car) error {
	displaced, err := s.store.FindOverlappingSoft(ctx, res.CarID, res.StartDate, res.EndDate)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(displaced))
	for _, d := range displaced {
		ids = append(ids, d.ID)
	}

	for _, d := range displaced {
		oldStatus := d.Status
		d.Status = models.StatusOverridden
		d.Version++
		s.notifyStatus(ctx, d, oldStatus, models.StatusOverridden)
	}

	if err := s.store.CreateReservationWithOverrides(ctx, res, ids); err != nil {
		return err
	}

	if len(displaced) > 0 {
		metrics.AddOverrides(len(displaced))
		s.logger.Info().
			Str("reservation_id", res.ID).
			Int64("car_id", res.CarID).
			Int("displaced", len(displaced)).
			Msg("firm reservation displaced soft holds")
	}
	return nil
}
