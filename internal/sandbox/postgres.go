package sandbox

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chargehub/internal/models"
)

// PostgresStore persists the sandbox state in Postgres via pgx/stdlib.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users (email, password_hash, role, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (email) DO NOTHING
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) CreateStation(ctx context.Context, station *models.Station) error {
	const query = `
		INSERT INTO stations (name, address, latitude, longitude, price_per_kwh, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return s.db.QueryRowContext(ctx, query,
		station.Name,
		station.Address,
		station.Latitude,
		station.Longitude,
		station.PricePerKWh,
		station.OwnerID,
	).Scan(&station.ID)
}

func (s *PostgresStore) Station(ctx context.Context, id int64) (*models.Station, error) {
	const query = `
		SELECT id, name, address, latitude, longitude, price_per_kwh, owner_id
		FROM stations
		WHERE id = $1
	`
	var station models.Station
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&station.ID,
		&station.Name,
		&station.Address,
		&station.Latitude,
		&station.Longitude,
		&station.PricePerKWh,
		&station.OwnerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	slots, err := s.slotsForStation(ctx, id)
	if err != nil {
		return nil, err
	}
	station.Slots = slots
	return &station, nil
}

func (s *PostgresStore) Stations(ctx context.Context) ([]models.Station, error) {
	const query = `
		SELECT id, name, address, latitude, longitude, price_per_kwh, owner_id
		FROM stations
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var station models.Station
		if err := rows.Scan(
			&station.ID,
			&station.Name,
			&station.Address,
			&station.Latitude,
			&station.Longitude,
			&station.PricePerKWh,
			&station.OwnerID,
		); err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range stations {
		slots, err := s.slotsForStation(ctx, stations[i].ID)
		if err != nil {
			return nil, err
		}
		stations[i].Slots = slots
	}
	return stations, nil
}

func (s *PostgresStore) slotsForStation(ctx context.Context, stationID int64) ([]models.ChargerSlot, error) {
	const query = `
		SELECT id, slot_number, type, connector_type, power_kw, status, station_id
		FROM charger_slots
		WHERE station_id = $1
		ORDER BY slot_number
	`
	rows, err := s.db.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []models.ChargerSlot
	for rows.Next() {
		var slot models.ChargerSlot
		if err := scanSlot(rows, &slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner, slot *models.ChargerSlot) error {
	return row.Scan(
		&slot.ID,
		&slot.SlotNumber,
		&slot.Type,
		&slot.ConnectorType,
		&slot.PowerKW,
		&slot.Status,
		&slot.StationID,
	)
}

func (s *PostgresStore) CreateSlot(ctx context.Context, slot *models.ChargerSlot) error {
	if slot.Status == "" {
		slot.Status = models.SlotStatusAvailable
	}
	const query = `
		INSERT INTO charger_slots (slot_number, type, connector_type, power_kw, status, station_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return s.db.QueryRowContext(ctx, query,
		slot.SlotNumber,
		slot.Type,
		slot.ConnectorType,
		slot.PowerKW,
		slot.Status,
		slot.StationID,
	).Scan(&slot.ID)
}

func (s *PostgresStore) Slot(ctx context.Context, id int64) (*models.ChargerSlot, error) {
	const query = `
		SELECT id, slot_number, type, connector_type, power_kw, status, station_id
		FROM charger_slots
		WHERE id = $1
	`
	var slot models.ChargerSlot
	err := scanSlot(s.db.QueryRowContext(ctx, query, id), &slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (s *PostgresStore) UpdateSlotStatus(ctx context.Context, id int64, status string) (*models.ChargerSlot, error) {
	const query = `
		UPDATE charger_slots
		SET status = $2
		WHERE id = $1
		RETURNING id, slot_number, type, connector_type, power_kw, status, station_id
	`
	var slot models.ChargerSlot
	err := scanSlot(s.db.QueryRowContext(ctx, query, id, status), &slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (s *PostgresStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	const query = `
		INSERT INTO bookings (user_id, slot_id, start_time, end_time, status, price_estimate, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var expires *time.Time
	if booking.ExpiresAt != nil {
		expires = &booking.ExpiresAt.Time
	}
	return s.db.QueryRowContext(ctx, query,
		booking.UserID,
		booking.SlotID,
		booking.StartTime.Time,
		booking.EndTime.Time,
		booking.Status,
		booking.PriceEstimate,
		booking.CreatedAt.Time,
		expires,
	).Scan(&booking.ID)
}

const bookingColumns = `id, user_id, slot_id, start_time, end_time, status, price_estimate, created_at, expires_at`

func scanBooking(row rowScanner, booking *models.Booking) error {
	var start, end, created time.Time
	var expires sql.NullTime
	if err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.SlotID,
		&start,
		&end,
		&booking.Status,
		&booking.PriceEstimate,
		&created,
		&expires,
	); err != nil {
		return err
	}
	booking.StartTime = models.NewAPITime(start)
	booking.EndTime = models.NewAPITime(end)
	booking.CreatedAt = models.NewAPITime(created)
	if expires.Valid {
		at := models.NewAPITime(expires.Time)
		booking.ExpiresAt = &at
	}
	return nil
}

func (s *PostgresStore) Booking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	var booking models.Booking
	err := scanBooking(s.db.QueryRowContext(ctx, query, id), &booking)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *PostgresStore) BookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY id DESC`
	return s.queryBookings(ctx, query, userID)
}

func (s *PostgresStore) BookingsByStation(ctx context.Context, stationID int64) ([]models.Booking, error) {
	query := `
		SELECT b.id, b.user_id, b.slot_id, b.start_time, b.end_time, b.status, b.price_estimate, b.created_at, b.expires_at
		FROM bookings b
		JOIN charger_slots cs ON cs.id = b.slot_id
		WHERE cs.station_id = $1
		ORDER BY b.id DESC
	`
	return s.queryBookings(ctx, query, stationID)
}

func (s *PostgresStore) queryBookings(ctx context.Context, query string, arg int64) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func (s *PostgresStore) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	const query = `UPDATE bookings SET status = $2 WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, session *models.ChargingSession) error {
	const query = `
		INSERT INTO charging_sessions (booking_id, start_time)
		VALUES ($1, $2)
		RETURNING id
	`
	return s.db.QueryRowContext(ctx, query, session.BookingID, session.StartTime.Time).
		Scan(&session.ID)
}

const sessionColumns = `id, booking_id, start_time, end_time, energy_kwh, cost`

func scanSession(row rowScanner, session *models.ChargingSession) error {
	var start time.Time
	var end sql.NullTime
	var energy, cost sql.NullFloat64
	if err := row.Scan(&session.ID, &session.BookingID, &start, &end, &energy, &cost); err != nil {
		return err
	}
	session.StartTime = models.NewAPITime(start)
	if end.Valid {
		at := models.NewAPITime(end.Time)
		session.EndTime = &at
	}
	if energy.Valid {
		session.EnergyConsumed = &energy.Float64
	}
	if cost.Valid {
		session.Cost = &cost.Float64
	}
	return nil
}

func (s *PostgresStore) Session(ctx context.Context, id int64) (*models.ChargingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM charging_sessions WHERE id = $1`
	var session models.ChargingSession
	err := scanSession(s.db.QueryRowContext(ctx, query, id), &session)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *PostgresStore) SessionByBooking(ctx context.Context, bookingID int64) (*models.ChargingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM charging_sessions WHERE booking_id = $1 ORDER BY id DESC LIMIT 1`
	var session models.ChargingSession
	err := scanSession(s.db.QueryRowContext(ctx, query, bookingID), &session)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *PostgresStore) CompleteSession(ctx context.Context, id int64, end time.Time, energyKWh, cost float64) (*models.ChargingSession, error) {
	const query = `
		UPDATE charging_sessions
		SET end_time = $2, energy_kwh = $3, cost = $4
		WHERE id = $1
		RETURNING ` + sessionColumns
	var session models.ChargingSession
	err := scanSession(s.db.QueryRowContext(ctx, query, id, end, energyKWh, cost), &session)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
