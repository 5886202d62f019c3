package sandbox

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"chargehub/internal/models"
)

// MemoryStore keeps everything in maps. Default for tests and local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]*User
	stations map[int64]*models.Station
	slots    map[int64]*models.ChargerSlot
	bookings map[int64]*models.Booking
	sessions map[int64]*models.ChargingSession
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*User),
		stations: make(map[int64]*models.Station),
		slots:    make(map[int64]*models.ChargerSlot),
		bookings: make(map[int64]*models.Booking),
		sessions: make(map[int64]*models.ChargingSession),
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicate
		}
	}
	user.ID = m.id()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *MemoryStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateStation(ctx context.Context, station *models.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	station.ID = m.id()
	clone := *station
	clone.Slots = nil
	m.stations[station.ID] = &clone
	return nil
}

func (m *MemoryStore) Station(ctx context.Context, id int64) (*models.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	station, ok := m.stations[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *station
	clone.Slots = m.slotsForStation(id)
	return &clone, nil
}

func (m *MemoryStore) Stations(ctx context.Context) ([]models.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stations := make([]models.Station, 0, len(m.stations))
	for _, station := range m.stations {
		clone := *station
		clone.Slots = m.slotsForStation(station.ID)
		stations = append(stations, clone)
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].ID < stations[j].ID })
	return stations, nil
}

// slotsForStation is called with the lock held.
func (m *MemoryStore) slotsForStation(stationID int64) []models.ChargerSlot {
	var slots []models.ChargerSlot
	for _, slot := range m.slots {
		if slot.StationID == stationID {
			slots = append(slots, *slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].SlotNumber < slots[j].SlotNumber })
	return slots
}

func (m *MemoryStore) CreateSlot(ctx context.Context, slot *models.ChargerSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stations[slot.StationID]; !ok {
		return ErrNotFound
	}
	slot.ID = m.id()
	if slot.Status == "" {
		slot.Status = models.SlotStatusAvailable
	}
	clone := *slot
	m.slots[slot.ID] = &clone
	return nil
}

func (m *MemoryStore) Slot(ctx context.Context, id int64) (*models.ChargerSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slot, ok := m.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *slot
	return &clone, nil
}

func (m *MemoryStore) UpdateSlotStatus(ctx context.Context, id int64, status string) (*models.ChargerSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	slot.Status = status
	clone := *slot
	return &clone, nil
}

func (m *MemoryStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[booking.SlotID]; !ok {
		return ErrNotFound
	}
	booking.ID = m.id()
	clone := *booking
	m.bookings[booking.ID] = &clone
	return nil
}

func (m *MemoryStore) Booking(ctx context.Context, id int64) (*models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *booking
	return &clone, nil
}

func (m *MemoryStore) BookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var bookings []models.Booking
	for _, booking := range m.bookings {
		if booking.UserID == userID {
			bookings = append(bookings, *booking)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID > bookings[j].ID })
	return bookings, nil
}

func (m *MemoryStore) BookingsByStation(ctx context.Context, stationID int64) ([]models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var bookings []models.Booking
	for _, booking := range m.bookings {
		slot, ok := m.slots[booking.SlotID]
		if ok && slot.StationID == stationID {
			bookings = append(bookings, *booking)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID > bookings[j].ID })
	return bookings, nil
}

func (m *MemoryStore) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	booking.Status = status
	return nil
}

func (m *MemoryStore) CreateSession(ctx context.Context, session *models.ChargingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[session.BookingID]; !ok {
		return ErrNotFound
	}
	session.ID = m.id()
	clone := *session
	m.sessions[session.ID] = &clone
	return nil
}

func (m *MemoryStore) Session(ctx context.Context, id int64) (*models.ChargingSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *session
	return &clone, nil
}

func (m *MemoryStore) SessionByBooking(ctx context.Context, bookingID int64) (*models.ChargingSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.ChargingSession
	for _, session := range m.sessions {
		if session.BookingID != bookingID {
			continue
		}
		if latest == nil || session.ID > latest.ID {
			latest = session
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (m *MemoryStore) CompleteSession(ctx context.Context, id int64, end time.Time, energyKWh, cost float64) (*models.ChargingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	endAt := models.NewAPITime(end)
	session.EndTime = &endAt
	session.EnergyConsumed = &energyKWh
	session.Cost = &cost
	clone := *session
	return &clone, nil
}
