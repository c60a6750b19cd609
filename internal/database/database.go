package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            email TEXT UNIQUE NOT NULL COLLATE NOCASE,
            first_name TEXT NOT NULL,
            last_name TEXT,
            phone TEXT,
            address TEXT,
            is_admin BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS cars (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            model TEXT NOT NULL,
            year INTEGER NOT NULL,
            colour TEXT,
            car_type TEXT NOT NULL,
            price_per_day REAL NOT NULL,
            pickup_location TEXT,
            status TEXT NOT NULL DEFAULT 'available',
            rules TEXT,
            seating_capacity INTEGER NOT NULL DEFAULT 0,
            luggage_capacity INTEGER NOT NULL DEFAULT 0,
            wheel_drive TEXT,
            fuel_type TEXT,
            transmission TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS reservations (
            id TEXT PRIMARY KEY,
            account_id INTEGER,
            guest_email TEXT COLLATE NOCASE,
            car_id INTEGER NOT NULL,
            reservation_type TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            pickup_location TEXT,
            dropoff_location TEXT,
            start_date TEXT NOT NULL,
            end_date TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            version INTEGER NOT NULL DEFAULT 1,
            FOREIGN KEY (car_id) REFERENCES cars(id)
        )`,

		`CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email)`,

		`CREATE INDEX IF NOT EXISTS idx_reservations_car_id ON reservations(car_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_account_id ON reservations(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_guest_email ON reservations(guest_email)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_window ON reservations(car_id, start_date, end_date)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
