package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"easydrive/internal/models"
)

const carColumns = `id, name, model, year, colour, car_type, price_per_day,
	                 pickup_location, status, rules, seating_capacity, luggage_capacity,
					 wheel_drive, fuel_type, transmission, created_at, updated_at`

func (db *DB) CreateCar(ctx context.Context, car *models.Car) error {
	query := `INSERT INTO cars (
				name, model, year, colour, car_type, price_per_day,
				pickup_location, status, rules, seating_capacity, luggage_capacity,
				wheel_drive, fuel_type, transmission, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	if car.Status == "" {
		car.Status = models.CarAvailable
	}
	result, err := db.ExecContext(ctx, query,
		car.Name, car.Model, car.Year, car.Colour, car.CarType, car.PricePerDay,
		car.PickupLocation, car.Status, car.Rules, car.SeatingCapacity, car.LuggageCapacity,
		car.WheelDrive, car.FuelType, car.Transmission, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	car.ID = id
	car.CreatedAt = now
	car.UpdatedAt = now
	return nil
}

// SeedCars inserts catalog entries from configuration with their configured
// ids. Rows that already exist are left untouched, so operator edits survive
// restarts.
func (db *DB) SeedCars(ctx context.Context, cars []models.Car) error {
	query := `INSERT OR IGNORE INTO cars (
				id, name, model, year, colour, car_type, price_per_day,
				pickup_location, status, rules, seating_capacity, luggage_capacity,
				wheel_drive, fuel_type, transmission, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	for _, car := range cars {
		status := car.Status
		if status == "" {
			status = models.CarAvailable
		}
		_, err := db.ExecContext(ctx, query,
			car.ID, car.Name, car.Model, car.Year, car.Colour, car.CarType, car.PricePerDay,
			car.PickupLocation, status, car.Rules, car.SeatingCapacity, car.LuggageCapacity,
			car.WheelDrive, car.FuelType, car.Transmission, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to seed car %d: %w", car.ID, err)
		}
	}
	return nil
}

func (db *DB) GetCar(ctx context.Context, id int64) (*models.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = ?`
	car, err := scanCar(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	return car, nil
}

func (db *DB) UpdateCar(ctx context.Context, car *models.Car) error {
	query := `UPDATE cars
              SET name = ?, model = ?, year = ?, colour = ?, car_type = ?, price_per_day = ?,
                  pickup_location = ?, status = ?, rules = ?, seating_capacity = ?,
                  luggage_capacity = ?, wheel_drive = ?, fuel_type = ?, transmission = ?,
                  updated_at = ?
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		car.Name, car.Model, car.Year, car.Colour, car.CarType, car.PricePerDay,
		car.PickupLocation, car.Status, car.Rules, car.SeatingCapacity,
		car.LuggageCapacity, car.WheelDrive, car.FuelType, car.Transmission,
		time.Now(), car.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update car: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListCars(ctx context.Context) ([]*models.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars ORDER BY id ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	defer rows.Close()

	var cars []*models.Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan car: %w", err)
		}
		cars = append(cars, car)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cars, nil
}

func scanCar(row rowScanner) (*models.Car, error) {
	car := &models.Car{}
	err := row.Scan(
		&car.ID, &car.Name, &car.Model, &car.Year, &car.Colour, &car.CarType,
		&car.PricePerDay, &car.PickupLocation, &car.Status, &car.Rules,
		&car.SeatingCapacity, &car.LuggageCapacity, &car.WheelDrive,
		&car.FuelType, &car.Transmission, &car.CreatedAt, &car.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return car, nil
}
