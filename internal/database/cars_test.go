package database

import (
	"context"
	"testing"

	"easydrive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	car := &models.Car{
		Name:            "Hiace",
		Model:           "Toyota",
		Year:            2021,
		Colour:          "white",
		CarType:         "van",
		PricePerDay:     80,
		PickupLocation:  "Airport",
		SeatingCapacity: 12,
		FuelType:        "diesel",
		Transmission:    "manual",
	}
	require.NoError(t, db.CreateCar(ctx, car))
	assert.NotZero(t, car.ID)

	got, err := db.GetCar(ctx, car.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hiace", got.Name)
	assert.Equal(t, models.CarAvailable, got.Status)
	assert.Equal(t, 12, got.SeatingCapacity)

	got.Status = models.CarUnavailable
	got.PricePerDay = 95
	require.NoError(t, db.UpdateCar(ctx, got))

	updated, err := db.GetCar(ctx, car.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CarUnavailable, updated.Status)
	assert.Equal(t, float64(95), updated.PricePerDay)

	cars, err := db.ListCars(ctx)
	require.NoError(t, err)
	assert.Len(t, cars, 1)
}

func TestGetCarNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetCar(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCarNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.UpdateCar(context.Background(), &models.Car{ID: 999, Name: "Ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}
