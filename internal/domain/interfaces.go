package domain

import (
	"context"
	"time"

	"easydrive/internal/database"
	"easydrive/internal/models"
	"easydrive/internal/notify"
)

type ReservationStore interface {
	CreateReservation(ctx context.Context, res *models.Reservation) error
	CreateReservationWithOverrides(ctx context.Context, res *models.Reservation, overriddenIDs []string) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	FindOverlappingSoft(ctx context.Context, carID int64, start, end time.Time) ([]*models.Reservation, error)
	FindSoftByGuestEmail(ctx context.Context, email string) ([]*models.Reservation, error)
	UpdateReservationStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error
	UpdateReservationWithVersion(ctx context.Context, res *models.Reservation, fromVersion int64) error
	LinkAccountWithVersion(ctx context.Context, id string, fromVersion, accountID int64) error
	ListReservations(ctx context.Context, filter database.ReservationFilter) ([]*models.Reservation, error)
	GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error)
}

type CarStore interface {
	CreateCar(ctx context.Context, car *models.Car) error
	GetCar(ctx context.Context, id int64) (*models.Car, error)
	UpdateCar(ctx context.Context, car *models.Car) error
	ListCars(ctx context.Context) ([]*models.Car, error)
}

type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

type Notifier interface {
	StatusChanged(ctx context.Context, res *models.Reservation, car *models.Car, account *models.Account, oldStatus, newStatus string)
	Converted(ctx context.Context, res *models.Reservation, car *models.Car, account *models.Account)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// NotificationQueue carries rendered notification events to the delivery
// worker. Implementations must be safe for concurrent use.
type NotificationQueue interface {
	Enqueue(ctx context.Context, event *notify.Event) error
	Dequeue(ctx context.Context, timeout time.Duration) (*notify.Event, error)
	DeadLetter(ctx context.Context, event *notify.Event) error
	Len(ctx context.Context) (int64, error)
}

type Mailer interface {
	SendMail(ctx context.Context, recipient, subject, body string) error
}
