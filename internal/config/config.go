package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"easydrive/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Backup        BackupConfig        `yaml:"backup"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
	API           APIConfig           `yaml:"api"`
	Booking       BookingConfig       `yaml:"booking"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Exports       ExportConfig        `yaml:"exports"`
	Cars          []models.Car        `yaml:"cars"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
	HealthCheckPort   int  `yaml:"health_check_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	MaxBookingDays int           `yaml:"max_booking_days"`
	LockTimeout    time.Duration `yaml:"lock_timeout"`
}

type NotificationsConfig struct {
	QueueKey      string        `yaml:"queue_key"`
	DeadLetterKey string        `yaml:"dead_letter_key"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	MaxRetries    int           `yaml:"max_retries"`
	SenderAddress string        `yaml:"sender_address"`
	SMTPAddress   string        `yaml:"smtp_address"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional, real deployments pass env directly
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.API.Auth.JWTSecret == "" || c.API.Auth.JWTSecret == "CHANGE_ME" {
		return errors.New("api jwt secret is required")
	}

	return ValidateCars(c.Cars)
}

func ValidateCars(cars []models.Car) error {
	carIDs := make(map[int64]bool)
	for _, car := range cars {
		if car.ID == 0 {
			return fmt.Errorf("car '%s' has invalid ID 0", car.Name)
		}
		if carIDs[car.ID] {
			return fmt.Errorf("duplicate car ID found: %d", car.ID)
		}
		if car.PricePerDay < 0 {
			return fmt.Errorf("car %d has negative price per day", car.ID)
		}
		carIDs[car.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}

	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if c.Booking.LockTimeout == 0 {
		c.Booking.LockTimeout = 5 * time.Second
	}

	if c.Notifications.QueueKey == "" {
		c.Notifications.QueueKey = "easydrive:notifications"
	}
	if c.Notifications.DeadLetterKey == "" {
		c.Notifications.DeadLetterKey = "easydrive:notifications:dead"
	}
	if c.Notifications.PollInterval == 0 {
		c.Notifications.PollInterval = 2 * time.Second
	}
	if c.Notifications.MaxRetries == 0 {
		c.Notifications.MaxRetries = 3
	}
	if c.Notifications.SenderAddress == "" {
		c.Notifications.SenderAddress = "reservations@easydrive.example"
	}
}
