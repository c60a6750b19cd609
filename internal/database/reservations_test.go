package database

import (
	"context"
	"os"
	"testing"
	"time"

	"easydrive/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	logger := zerolog.New(os.Stdout)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	return db
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(models.DateLayout, s)
	require.NoError(t, err)
	return d
}

func testCar(t *testing.T, db *DB) *models.Car {
	t.Helper()
	car := &models.Car{Name: "Corolla", Model: "Toyota", Year: 2022, CarType: "sedan", PricePerDay: 50}
	require.NoError(t, db.CreateCar(context.Background(), car))
	return car
}

func softReservation(carID int64, email, start, end string) *models.Reservation {
	s, _ := time.Parse(models.DateLayout, start)
	e, _ := time.Parse(models.DateLayout, end)
	return &models.Reservation{
		CarID:      carID,
		Type:       models.TypeSoft,
		Status:     models.StatusPending,
		GuestEmail: email,
		StartDate:  s,
		EndDate:    e,
	}
}

func TestCreateAndGetReservation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	car := testCar(t, db)

	res := softReservation(car.ID, "guest@example.com", "2026-09-10", "2026-09-12")
	res.PickupLocation = "Airport"
	res.DropoffLocation = "Downtown"
	require.NoError(t, db.CreateReservation(ctx, res))

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, int64(1), res.Version)

	got, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
	assert.Equal(t, "guest@example.com", got.GuestEmail)
	assert.Zero(t, got.AccountID)
	assert.Equal(t, models.TypeSoft, got.Type)
	assert.Equal(t, "Airport", got.PickupLocation)
	assert.Equal(t, day(t, "2026-09-10"), got.StartDate)
	assert.Equal(t, day(t, "2026-09-12"), got.EndDate)
}

func TestCreateReservationInvalidWindow(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	car := testCar(t, db)

	res := softReservation(car.ID, "g@x.com", "2026-09-12", "2026-09-10")
	err := db.CreateReservation(context.Background(), res)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestGetReservationNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetReservation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindOverlappingSoft(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	car := testCar(t, db)
	other := testCar(t, db)

	overlapping := softReservation(car.ID, "a@x.com", "2026-09-10", "2026-09-14")
	touching := softReservation(car.ID, "b@x.com", "2026-09-01", "2026-09-05")
	after := softReservation(car.ID, "c@x.com", "2026-09-20", "2026-09-22")
	otherCar := softReservation(other.ID, "d@x.com", "2026-09-10", "2026-09-14")
	for _, r := range []*models.Reservation{overlapping, touching, after, otherCar} {
		require.NoError(t, db.CreateReservation(ctx, r))
	}

	// confirmed soft holds are not displaced
	confirmed := softReservation(car.ID, "e@x.com", "2026-09-10", "2026-09-14")
	require.NoError(t, db.CreateReservation(ctx, confirmed))
	require.NoError(t, db.UpdateReservationStatusWithVersion(ctx, confirmed.ID, 1, models.StatusConfirmed))

	found, err := db.FindOverlappingSoft(ctx, car.ID, day(t, "2026-09-12"), day(t, "2026-09-16"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, overlapping.ID, found[0].ID)
}

func TestCreateReservationWithOverrides(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	car := testCar(t, db)

	soft1 := softReservation(car.ID, "a@x.com", "2026-09-10", "2026-09-12")
	soft2 := softReservation(car.ID, "b@x.com", "2026-09-11", "2026-09-13")
	require.NoError(t, db.CreateReservation(ctx, soft1))
	require.NoError(t, db.CreateReservation(ctx, soft2))

	firm := &models.Reservation{
		CarID:     car.ID,
		AccountID: 1,
		Type:      models.TypeFirm,
		Status:    models.StatusPending,
		StartDate: day(t, "2026-09-10"),
		EndDate:   day(t, "2026-09-13"),
	}
	require.NoError(t, db.CreateReservationWithOverrides(ctx, firm, []string{soft1.ID, soft2.ID}))

	got1, err := db.GetReservation(ctx, soft1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOverridden, got1.Status)
	assert.Equal(t, int64(2), got1.Version)

	got2, err := db.GetReservation(ctx, soft2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOverridden, got2.Status)

	gotFirm, err := db.GetReservation(ctx, firm.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TypeFirm, gotFirm.Type)
	assert.Equal(t, models.StatusPending, gotFirm.Status)
}

func TestOverrideGuardLeavesMovedRecordsAlone(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	car := testCar(t, db)

	soft := softReservation(car.ID, "a@x.com", "2026-09-10", "2026-09-12")
	require.NoError(t, db.CreateReservation(ctx, soft))
	// the guest cancels before the firm insert commits
	require.NoError(t, db.UpdateReservationStatusWithVersion(ctx, soft.ID, 1, models.StatusCancelled))

	firm := &models.Reservation{
		CarID:     car.ID,
		AccountID: 1,
		Type:      models.TypeFirm,
		Status:    models.StatusPending,
		StartDate: day(t, "2026-09-10"),
		EndDate:   day(t, "2026-09-12"),
	}
	require.NoError(t, db.CreateReservationWithOverrides(ctx, firm, []string{soft.ID}))

	got, err := db.GetReservation(ctx, soft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestUpdateReservationStatusWithVersion(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	car := testCar(t, db)

	res := softReservation(car.ID, "a@x.com", "2026-09-10", "2026-09-12")
	require.NoError(t, db.CreateReservation(ctx, res))

	require.NoError(t, db.UpdateReservationStatusWithVersion(ctx, res.ID, 1, models.StatusConfirmed))

	// stale version loses
	err := db.UpdateReservationStatusWithVersion(ctx, res.ID, 1, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	got, _ := db.GetReservation(ctx, res.ID)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestUpdateReservationWithVersion(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	car := testCar(t, db)

	res := softReservation(car.ID, "a@x.com", "2026-09-10", "2026-09-12")
	res.PickupLocation = "Airport"
	require.NoError(t, db.CreateReservation(ctx, res))

	res.PickupLocation = "Harbour"
	res.EndDate = day(t, "2026-09-14")
	res.Status = models.StatusModified
	require.NoError(t, db.UpdateReservationWithVersion(ctx, res, 1))

	got, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbour", got.PickupLocation)
	assert.Equal(t, day(t, "2026-09-14"), got.EndDate)
	assert.Equal(t, models.StatusModified, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestFindSoftByGuestEmailIsCaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	car := testCar(t, db)

	res := softReservation(car.ID, "A@X.com", "2026-09-10", "2026-09-12")
	cancelled := softReservation(car.ID, "a@x.com", "2026-10-01", "2026-10-03")
	require.NoError(t, db.CreateReservation(ctx, res))
	require.NoError(t, db.CreateReservation(ctx, cancelled))
	require.NoError(t, db.UpdateReservationStatusWithVersion(ctx, cancelled.ID, 1, models.StatusCancelled))

	found, err := db.FindSoftByGuestEmail(ctx, "a@x.COM")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, res.ID, found[0].ID)
}

func TestLinkAccountWithVersion(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	car := testCar(t, db)

	account := &models.Account{Email: "a@x.com", FirstName: "Ada"}
	require.NoError(t, db.CreateAccount(ctx, account))

	res := softReservation(car.ID, "a@x.com", "2026-09-10", "2026-09-12")
	require.NoError(t, db.CreateReservation(ctx, res))

	require.NoError(t, db.LinkAccountWithVersion(ctx, res.ID, 1, account.ID))

	got, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.AccountID)
	assert.Empty(t, got.GuestEmail)
	assert.Equal(t, models.TypeFirm, got.Type)
	assert.Equal(t, models.StatusPending, got.Status)

	// converted records no longer match guest lookups
	found, err := db.FindSoftByGuestEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, found)

	// replaying the link is a version conflict, not a double conversion
	err = db.LinkAccountWithVersion(ctx, res.ID, 1, account.ID)
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestListReservationsFilter(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	car := testCar(t, db)
	other := testCar(t, db)

	guest := softReservation(car.ID, "g@x.com", "2026-09-10", "2026-09-12")
	require.NoError(t, db.CreateReservation(ctx, guest))

	firm := &models.Reservation{
		CarID: other.ID, AccountID: 5, Type: models.TypeFirm, Status: models.StatusPending,
		StartDate: day(t, "2026-09-10"), EndDate: day(t, "2026-09-12"),
	}
	require.NoError(t, db.CreateReservation(ctx, firm))

	all, err := db.ListReservations(ctx, ReservationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byAccount, err := db.ListReservations(ctx, ReservationFilter{AccountID: 5})
	require.NoError(t, err)
	require.Len(t, byAccount, 1)
	assert.Equal(t, firm.ID, byAccount[0].ID)

	byType, err := db.ListReservations(ctx, ReservationFilter{Type: models.TypeSoft, CarID: car.ID})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, guest.ID, byType[0].ID)
}

func TestGetReservationsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	car := testCar(t, db)

	in := softReservation(car.ID, "a@x.com", "2026-09-10", "2026-09-12")
	out := softReservation(car.ID, "b@x.com", "2026-10-01", "2026-10-03")
	require.NoError(t, db.CreateReservation(ctx, in))
	require.NoError(t, db.CreateReservation(ctx, out))

	got, err := db.GetReservationsByDateRange(ctx, day(t, "2026-09-01"), day(t, "2026-09-30"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, in.ID, got[0].ID)
}
