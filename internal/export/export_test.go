package export

import (
	"context"
	"os"
	"testing"
	"time"

	"easydrive/internal/database"
	"easydrive/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupExport(t *testing.T) (*Service, *database.DB) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db, db, t.TempDir(), &logger), db
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(models.DateLayout, s)
	require.NoError(t, err)
	return d
}

func TestBuildReport(t *testing.T) {
	svc, db := setupExport(t)
	ctx := context.Background()

	car := &models.Car{Name: "Corolla", Model: "Toyota", Year: 2022, CarType: "sedan", PricePerDay: 50}
	require.NoError(t, db.CreateCar(ctx, car))

	res := &models.Reservation{
		CarID:      car.ID,
		Type:       models.TypeSoft,
		Status:     models.StatusPending,
		GuestEmail: "guest@example.com",
		StartDate:  mustDay(t, "2026-09-10"),
		EndDate:    mustDay(t, "2026-09-12"),
	}
	require.NoError(t, db.CreateReservation(ctx, res))

	outside := &models.Reservation{
		CarID:      car.ID,
		Type:       models.TypeSoft,
		Status:     models.StatusPending,
		GuestEmail: "other@example.com",
		StartDate:  mustDay(t, "2026-11-01"),
		EndDate:    mustDay(t, "2026-11-03"),
	}
	require.NoError(t, db.CreateReservation(ctx, outside))

	f, err := svc.BuildReport(ctx, mustDay(t, "2026-09-01"), mustDay(t, "2026-09-30"))
	require.NoError(t, err)
	defer f.Close()

	id, err := f.GetCellValue(sheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, res.ID, id)

	holder, _ := f.GetCellValue(sheetName, "C3")
	assert.Equal(t, "guest@example.com", holder)

	days, _ := f.GetCellValue(sheetName, "H3")
	assert.Equal(t, "3", days)

	total, _ := f.GetCellValue(sheetName, "J3")
	assert.Equal(t, "150", total)

	// the November reservation stays out of the September report
	empty, _ := f.GetCellValue(sheetName, "A4")
	assert.Empty(t, empty)
}

func TestSaveReport(t *testing.T) {
	svc, db := setupExport(t)
	ctx := context.Background()

	car := &models.Car{Name: "Hiace", Model: "Toyota", Year: 2021, CarType: "van", PricePerDay: 80}
	require.NoError(t, db.CreateCar(ctx, car))

	path, err := svc.SaveReport(ctx, mustDay(t, "2026-09-01"), mustDay(t, "2026-09-30"))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
