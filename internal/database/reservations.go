package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"easydrive/internal/models"

	"github.com/google/uuid"
)

const reservationColumns = `id, account_id, guest_email, car_id, reservation_type, status,
	                 pickup_location, dropoff_location, start_date, end_date,
					 created_at, updated_at, version`

// CreateReservation inserts a new reservation with a generated id and version 1.
func (db *DB) CreateReservation(ctx context.Context, res *models.Reservation) error {
	if res.EndDate.Before(res.StartDate) {
		return ErrInvalidWindow
	}

	if res.ID == "" {
		res.ID = uuid.NewString()
	}

	query := `INSERT INTO reservations (
				id, account_id, guest_email, car_id, reservation_type, status,
				pickup_location, dropoff_location, start_date, end_date,
				created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		res.ID,
		nullableID(res.AccountID),
		nullableString(res.GuestEmail),
		res.CarID,
		res.Type,
		res.Status,
		res.PickupLocation,
		res.DropoffLocation,
		res.StartDate.Format(models.DateLayout),
		res.EndDate.Format(models.DateLayout),
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	res.CreatedAt = now
	res.UpdatedAt = now
	res.Version = 1
	return nil
}

// CreateReservationWithOverrides commits the new reservation together with the
// demotion of every displaced soft reservation. Either all rows become visible
// or none do.
func (db *DB) CreateReservationWithOverrides(ctx context.Context, res *models.Reservation, overriddenIDs []string) error {
	if res.EndDate.Before(res.StartDate) {
		return ErrInvalidWindow
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	for _, id := range overriddenIDs {
		// Guarded so a record another writer already moved is left alone.
		queryOverride := `UPDATE reservations
			SET status = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND reservation_type = ? AND status = ?`
		if _, err := tx.ExecContext(ctx, queryOverride,
			models.StatusOverridden, now, id, models.TypeSoft, models.StatusPending); err != nil {
			return fmt.Errorf("failed to override reservation %s: %w", id, err)
		}
	}

	if res.ID == "" {
		res.ID = uuid.NewString()
	}

	queryInsert := `INSERT INTO reservations (
				id, account_id, guest_email, car_id, reservation_type, status,
				pickup_location, dropoff_location, start_date, end_date,
				created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, queryInsert,
		res.ID,
		nullableID(res.AccountID),
		nullableString(res.GuestEmail),
		res.CarID,
		res.Type,
		res.Status,
		res.PickupLocation,
		res.DropoffLocation,
		res.StartDate.Format(models.DateLayout),
		res.EndDate.Format(models.DateLayout),
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	res.CreatedAt = now
	res.UpdatedAt = now
	res.Version = 1
	return nil
}

func (db *DB) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	row := db.QueryRowContext(ctx, query, id)
	res, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return res, nil
}

// FindOverlappingSoft returns pending soft reservations on the car whose
// window intersects [start, end): existing.start < end AND existing.end > start.
func (db *DB) FindOverlappingSoft(ctx context.Context, carID int64, start, end time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations
              WHERE car_id = ? AND reservation_type = ? AND status = ?
                AND start_date < ? AND end_date > ?
              ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, query,
		carID, models.TypeSoft, models.StatusPending,
		end.Format(models.DateLayout), start.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping reservations: %w", err)
	}
	defer rows.Close()
	return scanReservations(rows)
}

// FindSoftByGuestEmail returns soft, non-terminal reservations held by the
// given guest email. The match is case-insensitive by column collation, which
// is also what makes reconciliation idempotent: converted records stop matching.
func (db *DB) FindSoftByGuestEmail(ctx context.Context, email string) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations
              WHERE reservation_type = ? AND guest_email = ? AND account_id IS NULL
                AND status NOT IN (?, ?)
              ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, query,
		models.TypeSoft, email, models.StatusCancelled, models.StatusOverridden)
	if err != nil {
		return nil, fmt.Errorf("failed to find guest reservations: %w", err)
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (db *DB) UpdateReservationStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	query := `UPDATE reservations SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// UpdateReservationWithVersion rewrites the mutable booking fields together
// with the status decided by the lifecycle rules.
func (db *DB) UpdateReservationWithVersion(ctx context.Context, res *models.Reservation, fromVersion int64) error {
	if res.EndDate.Before(res.StartDate) {
		return ErrInvalidWindow
	}

	query := `UPDATE reservations
              SET pickup_location = ?, dropoff_location = ?, start_date = ?, end_date = ?,
                  status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query,
		res.PickupLocation,
		res.DropoffLocation,
		res.StartDate.Format(models.DateLayout),
		res.EndDate.Format(models.DateLayout),
		res.Status,
		time.Now(),
		res.ID,
		fromVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// LinkAccountWithVersion re-attributes a guest-held soft reservation to a
// registered account and upgrades it to firm. The soft/guest guard makes the
// operation a no-op for already converted records.
func (db *DB) LinkAccountWithVersion(ctx context.Context, id string, fromVersion, accountID int64) error {
	query := `UPDATE reservations
              SET account_id = ?, guest_email = NULL, reservation_type = ?,
                  version = version + 1, updated_at = ?
              WHERE id = ? AND version = ? AND reservation_type = ? AND account_id IS NULL`
	result, err := db.ExecContext(ctx, query,
		accountID, models.TypeFirm, time.Now(), id, fromVersion, models.TypeSoft)
	if err != nil {
		return fmt.Errorf("failed to link reservation to account: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// ReservationFilter narrows ListReservations. Zero values mean "any".
type ReservationFilter struct {
	AccountID  int64
	GuestEmail string
	CarID      int64
	Status     string
	Type       string
}

func (db *DB) ListReservations(ctx context.Context, filter ReservationFilter) ([]*models.Reservation, error) {
	var conds []string
	var args []any

	if filter.AccountID != 0 {
		conds = append(conds, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.GuestEmail != "" {
		conds = append(conds, "guest_email = ?")
		args = append(args, filter.GuestEmail)
	}
	if filter.CarID != 0 {
		conds = append(conds, "car_id = ?")
		args = append(args, filter.CarID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		conds = append(conds, "reservation_type = ?")
		args = append(args, filter.Type)
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()
	return scanReservations(rows)
}

// GetReservationsByDateRange returns reservations whose window intersects the
// given range, for reporting.
func (db *DB) GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations
              WHERE start_date <= ? AND end_date >= ?
              ORDER BY start_date ASC, created_at ASC`
	rows, err := db.QueryContext(ctx, query,
		end.Format(models.DateLayout), start.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations by date range: %w", err)
	}
	defer rows.Close()
	return scanReservations(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	res := &models.Reservation{}
	var accountID sql.NullInt64
	var guestEmail sql.NullString
	var startStr, endStr string
	err := row.Scan(
		&res.ID, &accountID, &guestEmail, &res.CarID, &res.Type, &res.Status,
		&res.PickupLocation, &res.DropoffLocation, &startStr, &endStr,
		&res.CreatedAt, &res.UpdatedAt, &res.Version,
	)
	if err != nil {
		return nil, err
	}

	if accountID.Valid {
		res.AccountID = accountID.Int64
	}
	if guestEmail.Valid {
		res.GuestEmail = guestEmail.String
	}

	res.StartDate, err = time.Parse(models.DateLayout, startStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start date %s: %w", startStr, err)
	}
	res.EndDate, err = time.Parse(models.DateLayout, endStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse end date %s: %w", endStr, err)
	}
	return res, nil
}

func scanReservations(rows *sql.Rows) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
