package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"easydrive/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
database:
  path: "test.db"
api:
  auth:
    jwt_secret: "test_secret"
cars:
  - id: 1
    name: "Corolla"
    model: "Toyota"
    price_per_day: 50
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}

	if len(cfg.Cars) != 1 || cfg.Cars[0].ID != 1 {
		t.Errorf("expected 1 car with ID 1")
	}

	if cfg.Cars[0].PricePerDay != 50 {
		t.Errorf("expected price per day 50, got %v", cfg.Cars[0].PricePerDay)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				API:      APIConfig{Auth: APIAuthConfig{JWTSecret: "secret"}},
				Cars:     []models.Car{{ID: 1, Name: "Corolla"}},
			},
			wantErr: false,
		},
		{
			name: "missing database path",
			cfg: Config{
				API: APIConfig{Auth: APIAuthConfig{JWTSecret: "secret"}},
			},
			wantErr: true,
		},
		{
			name: "missing jwt secret",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
			},
			wantErr: true,
		},
		{
			name: "placeholder jwt secret",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				API:      APIConfig{Auth: APIAuthConfig{JWTSecret: "CHANGE_ME"}},
			},
			wantErr: true,
		},
		{
			name: "duplicate car id",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				API:      APIConfig{Auth: APIAuthConfig{JWTSecret: "secret"}},
				Cars: []models.Car{
					{ID: 1, Name: "Corolla"},
					{ID: 1, Name: "Civic"},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.Booking.MaxBookingDays != models.DefaultMaxBookingDays {
		t.Errorf("expected default max booking days %d, got %d", models.DefaultMaxBookingDays, cfg.Booking.MaxBookingDays)
	}
	if cfg.Booking.LockTimeout != 5*time.Second {
		t.Errorf("expected default lock timeout 5s, got %v", cfg.Booking.LockTimeout)
	}
	if cfg.Notifications.QueueKey != "easydrive:notifications" {
		t.Errorf("expected default queue key, got %s", cfg.Notifications.QueueKey)
	}
	if cfg.Notifications.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", cfg.Notifications.MaxRetries)
	}
}

func TestValidateCars(t *testing.T) {
	tests := []struct {
		name    string
		cars    []models.Car
		wantErr bool
	}{
		{
			name: "Valid cars",
			cars: []models.Car{
				{ID: 1, Name: "Corolla", PricePerDay: 50},
				{ID: 2, Name: "Civic", PricePerDay: 60},
			},
			wantErr: false,
		},
		{
			name: "Duplicate ID",
			cars: []models.Car{
				{ID: 1, Name: "Corolla"},
				{ID: 1, Name: "Civic"},
			},
			wantErr: true,
		},
		{
			name: "ID 0",
			cars: []models.Car{
				{ID: 0, Name: "Corolla"},
			},
			wantErr: true,
		},
		{
			name: "Negative price",
			cars: []models.Car{
				{ID: 1, Name: "Corolla", PricePerDay: -5},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCars(tt.cars)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCars() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
