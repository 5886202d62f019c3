package sandbox

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"chargehub/internal/models"
)

// Refusal is a domain-level rejection surfaced to clients as a
// success:false envelope with the given message.
type Refusal struct {
	msg string
}

func (r *Refusal) Error() string { return r.msg }

func refuse(msg string) *Refusal { return &Refusal{msg: msg} }

// Domain refusals. The messages are part of the wire contract; clients
// render them verbatim.
var (
	ErrInvalidCredentials   = refuse("Invalid email or password")
	ErrEmailTaken           = refuse("Email already registered")
	ErrStationNotFound      = refuse("Station not found")
	ErrSlotNotFound         = refuse("Slot not found")
	ErrSlotUnavailable      = refuse("Slot is not available")
	ErrBookingNotFound      = refuse("Booking not found")
	ErrBookingExpired       = refuse("Booking has expired")
	ErrBookingNotConfirmed  = refuse("Booking is not in a confirmed state")
	ErrBookingNotCancelable = refuse("Booking can no longer be cancelled")
	ErrSessionNotFound      = refuse("Session not found")
	ErrSessionAlreadyActive = refuse("Booking already has an active charging session")
	ErrSessionFinished      = refuse("Session already stopped")
	ErrNotAllowed           = refuse("Not allowed")
	ErrBadSlotStatus        = refuse("Unknown slot status")
)

// Service implements the sandbox marketplace semantics on top of a Store.
type Service struct {
	store   Store
	cache   *ActiveSessionCache
	tokens  *TokenService
	hasher  *PasswordHasher
	logger  *zap.Logger
	holdTTL time.Duration

	now func() time.Time
}

// NewService wires the sandbox domain logic. cache may be nil.
func NewService(store Store, cache *ActiveSessionCache, tokens *TokenService, hasher *PasswordHasher, holdTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if holdTTL <= 0 {
		holdTTL = 15 * time.Minute
	}
	return &Service{
		store:   store,
		cache:   cache,
		tokens:  tokens,
		hasher:  hasher,
		logger:  logger,
		holdTTL: holdTTL,
		now:     time.Now,
	}
}

// Signup creates an account and returns a bearer token.
func (s *Service) Signup(ctx context.Context, email, password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	user := &User{Email: email, PasswordHash: hash, Role: "USER"}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return "", ErrEmailTaken
		}
		return "", err
	}
	return s.tokens.Generate(user.ID, user.Role)
}

// Login verifies credentials and returns a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Generate(user.ID, user.Role)
}

// ListStations returns all stations with a sandbox score. The score here is
// a plain availability ratio; the production ranker lives in the real
// backend and clients treat the value as opaque either way.
func (s *Service) ListStations(ctx context.Context) ([]models.StationWithScore, error) {
	stations, err := s.store.Stations(ctx)
	if err != nil {
		return nil, err
	}
	scored := make([]models.StationWithScore, 0, len(stations))
	for _, station := range stations {
		scored = append(scored, models.StationWithScore{
			Station: station,
			Score:   availabilityScore(station.Slots),
		})
	}
	return scored, nil
}

func availabilityScore(slots []models.ChargerSlot) float64 {
	if len(slots) == 0 {
		return 0
	}
	available := 0
	for _, slot := range slots {
		if slot.Status == models.SlotStatusAvailable {
			available++
		}
	}
	return float64(available) / float64(len(slots))
}

// GetStation returns one station with slots.
func (s *Service) GetStation(ctx context.Context, id int64) (*models.Station, error) {
	station, err := s.store.Station(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrStationNotFound
	}
	return station, err
}

// CreateStation registers a station owned by the caller.
func (s *Service) CreateStation(ctx context.Context, ownerID int64, station *models.Station) (*models.Station, error) {
	station.OwnerID = ownerID
	if err := s.store.CreateStation(ctx, station); err != nil {
		return nil, err
	}
	return station, nil
}

// AddSlot attaches a slot to a station owned by the caller.
func (s *Service) AddSlot(ctx context.Context, ownerID, stationID int64, slot *models.ChargerSlot) (*models.ChargerSlot, error) {
	station, err := s.store.Station(ctx, stationID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, err
	}
	if station.OwnerID != ownerID {
		return nil, ErrNotAllowed
	}
	slot.StationID = stationID
	if err := s.store.CreateSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

var validSlotStatuses = map[string]bool{
	models.SlotStatusAvailable:   true,
	models.SlotStatusReserved:    true,
	models.SlotStatusBooked:      true,
	models.SlotStatusCharging:    true,
	models.SlotStatusMaintenance: true,
	models.SlotStatusOccupied:    true,
}

// SetSlotStatus updates a slot's status on behalf of the station owner.
func (s *Service) SetSlotStatus(ctx context.Context, ownerID, slotID int64, status string) (*models.ChargerSlot, error) {
	if !validSlotStatuses[status] {
		return nil, ErrBadSlotStatus
	}
	slot, err := s.store.Slot(ctx, slotID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	station, err := s.store.Station(ctx, slot.StationID)
	if err != nil {
		return nil, err
	}
	if station.OwnerID != ownerID {
		return nil, ErrNotAllowed
	}
	return s.store.UpdateSlotStatus(ctx, slotID, status)
}

// StationBookings lists bookings against a station owned by the caller.
func (s *Service) StationBookings(ctx context.Context, ownerID, stationID int64) ([]models.Booking, error) {
	station, err := s.store.Station(ctx, stationID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, err
	}
	if station.OwnerID != ownerID {
		return nil, ErrNotAllowed
	}
	return s.store.BookingsByStation(ctx, stationID)
}

// CreateBooking reserves a slot for the time window. The price estimate is
// window hours times slot power times the station tariff.
func (s *Service) CreateBooking(ctx context.Context, userID, slotID int64, start, end time.Time) (*models.Booking, error) {
	slot, err := s.store.Slot(ctx, slotID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	if !slot.Bookable() {
		return nil, ErrSlotUnavailable
	}
	station, err := s.store.Station(ctx, slot.StationID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expires := models.NewAPITime(now.Add(s.holdTTL))
	booking := &models.Booking{
		UserID:        userID,
		SlotID:        slotID,
		StartTime:     models.NewAPITime(start),
		EndTime:       models.NewAPITime(end),
		Status:        models.BookingStatusConfirmed,
		PriceEstimate: end.Sub(start).Hours() * slot.PowerKW * station.PricePerKWh,
		CreatedAt:     models.NewAPITime(now),
		ExpiresAt:     &expires,
	}
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateSlotStatus(ctx, slotID, models.SlotStatusBooked); err != nil {
		return nil, err
	}
	s.logger.Info("booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("slot_id", slotID),
		zap.Int64("user_id", userID),
	)
	return booking, nil
}

// GetBooking returns a booking owned by the caller, applying lazy expiry.
func (s *Service) GetBooking(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	booking, err := s.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	return s.expireIfDue(ctx, booking)
}

// MyBookings lists the caller's bookings, newest first.
func (s *Service) MyBookings(ctx context.Context, userID int64) ([]models.Booking, error) {
	bookings, err := s.store.BookingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		expired, err := s.expireIfDue(ctx, &bookings[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = *expired
	}
	return bookings, nil
}

// CancelBooking cancels a booking that has not started charging yet.
func (s *Service) CancelBooking(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	booking, err := s.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	booking, err = s.expireIfDue(ctx, booking)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending && booking.Status != models.BookingStatusConfirmed {
		return nil, ErrBookingNotCancelable
	}
	if err := s.store.UpdateBookingStatus(ctx, bookingID, models.BookingStatusCancelled); err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateSlotStatus(ctx, booking.SlotID, models.SlotStatusAvailable); err != nil {
		return nil, err
	}
	booking.Status = models.BookingStatusCancelled
	return booking, nil
}

// StartCharging transitions a confirmed booking to ONGOING and opens the
// charging session. A booking carries at most one active session.
func (s *Service) StartCharging(ctx context.Context, userID, bookingID int64) (*models.ChargingSession, error) {
	booking, err := s.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	booking, err = s.expireIfDue(ctx, booking)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusExpired {
		return nil, ErrBookingExpired
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, ErrBookingNotConfirmed
	}

	if existing, err := s.store.SessionByBooking(ctx, bookingID); err == nil && !existing.Finished() {
		return nil, ErrSessionAlreadyActive
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	session := &models.ChargingSession{
		BookingID: bookingID,
		StartTime: models.NewAPITime(s.now().UTC()),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	if err := s.store.UpdateBookingStatus(ctx, bookingID, models.BookingStatusOngoing); err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateSlotStatus(ctx, booking.SlotID, models.SlotStatusCharging); err != nil {
		return nil, err
	}

	if err := s.cache.Save(ctx, ActiveSession{
		SessionID: session.ID,
		BookingID: bookingID,
		UserID:    userID,
		SlotID:    booking.SlotID,
		StartedAt: session.StartTime.Time,
	}); err != nil {
		s.logger.Warn("failed to cache active session", zap.Error(err))
	}

	s.logger.Info("charging started",
		zap.Int64("session_id", session.ID),
		zap.Int64("booking_id", bookingID),
	)
	return session, nil
}

// StopCharging closes the session, settles energy and cost from elapsed
// time and the station tariff, and releases the slot.
func (s *Service) StopCharging(ctx context.Context, userID, sessionID int64) (*models.ChargingSession, error) {
	session, err := s.store.Session(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.Finished() {
		return nil, ErrSessionFinished
	}
	booking, err := s.ownedBooking(ctx, userID, session.BookingID)
	if err != nil {
		return nil, err
	}
	slot, err := s.store.Slot(ctx, booking.SlotID)
	if err != nil {
		return nil, err
	}
	station, err := s.store.Station(ctx, slot.StationID)
	if err != nil {
		return nil, err
	}

	end := s.now().UTC()
	energy := end.Sub(session.StartTime.Time).Hours() * slot.PowerKW
	if energy < 0 {
		energy = 0
	}
	cost := energy * station.PricePerKWh

	session, err = s.store.CompleteSession(ctx, sessionID, end, energy, cost)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateBookingStatus(ctx, booking.ID, models.BookingStatusCompleted); err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateSlotStatus(ctx, booking.SlotID, models.SlotStatusAvailable); err != nil {
		return nil, err
	}
	if err := s.cache.Delete(ctx, booking.ID); err != nil {
		s.logger.Warn("failed to drop active session cache", zap.Error(err))
	}

	s.logger.Info("charging stopped",
		zap.Int64("session_id", sessionID),
		zap.Float64("energy_kwh", energy),
		zap.Float64("cost", cost),
	)
	return session, nil
}

// Session returns a session owned by the caller.
func (s *Service) Session(ctx context.Context, userID, sessionID int64) (*models.ChargingSession, error) {
	session, err := s.store.Session(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedBooking(ctx, userID, session.BookingID); err != nil {
		return nil, err
	}
	return session, nil
}

// SessionByBooking resolves the latest session for a booking, trying the
// cache before the store.
func (s *Service) SessionByBooking(ctx context.Context, userID, bookingID int64) (*models.ChargingSession, error) {
	if _, err := s.ownedBooking(ctx, userID, bookingID); err != nil {
		return nil, err
	}

	if cached, err := s.cache.Get(ctx, bookingID); err != nil {
		s.logger.Warn("active session cache lookup failed", zap.Error(err))
	} else if cached != nil {
		if session, err := s.store.Session(ctx, cached.SessionID); err == nil {
			return session, nil
		}
	}

	session, err := s.store.SessionByBooking(ctx, bookingID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

func (s *Service) ownedBooking(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	booking, err := s.store.Booking(ctx, bookingID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotAllowed
	}
	return booking, nil
}

// expireIfDue applies time-based expiry to bookings still waiting for
// charging to start.
func (s *Service) expireIfDue(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if booking.Status != models.BookingStatusConfirmed && booking.Status != models.BookingStatusPending {
		return booking, nil
	}
	if booking.ExpiresAt == nil || s.now().UTC().Before(booking.ExpiresAt.Time) {
		return booking, nil
	}
	if err := s.store.UpdateBookingStatus(ctx, booking.ID, models.BookingStatusExpired); err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateSlotStatus(ctx, booking.SlotID, models.SlotStatusAvailable); err != nil {
		return nil, err
	}
	booking.Status = models.BookingStatusExpired
	return booking, nil
}
