package sandbox

import (
	"context"
	"errors"
	"time"

	"chargehub/internal/models"
)

// Store errors.
var (
	ErrNotFound  = errors.New("sandbox: not found")
	ErrDuplicate = errors.New("sandbox: already exists")
)

// User is the sandbox's server-side account record.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Store is the persistence boundary of the sandbox backend. The in-memory
// implementation backs tests and local runs; the Postgres one backs a
// longer-lived sandbox.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	UserByEmail(ctx context.Context, email string) (*User, error)

	CreateStation(ctx context.Context, station *models.Station) error
	Station(ctx context.Context, id int64) (*models.Station, error)
	Stations(ctx context.Context) ([]models.Station, error)

	CreateSlot(ctx context.Context, slot *models.ChargerSlot) error
	Slot(ctx context.Context, id int64) (*models.ChargerSlot, error)
	UpdateSlotStatus(ctx context.Context, id int64, status string) (*models.ChargerSlot, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	Booking(ctx context.Context, id int64) (*models.Booking, error)
	BookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error)
	BookingsByStation(ctx context.Context, stationID int64) ([]models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) error

	CreateSession(ctx context.Context, session *models.ChargingSession) error
	Session(ctx context.Context, id int64) (*models.ChargingSession, error)
	SessionByBooking(ctx context.Context, bookingID int64) (*models.ChargingSession, error)
	CompleteSession(ctx context.Context, id int64, end time.Time, energyKWh, cost float64) (*models.ChargingSession, error)
}
