package models

import "time"

// Booking statuses as reported by the marketplace.
const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusOngoing   = "ONGOING"
	BookingStatusCompleted = "COMPLETED"
	BookingStatusExpired   = "EXPIRED"
	BookingStatusCancelled = "CANCELLED"
)

// Booking is a reservation of a charger slot for a time window. The backend
// owns the record; clients only trigger transitions through the API.
type Booking struct {
	ID            int64    `json:"id"`
	UserID        int64    `json:"userId"`
	SlotID        int64    `json:"slotId"`
	StartTime     APITime  `json:"startTime"`
	EndTime       APITime  `json:"endTime"`
	Status        string   `json:"status"`
	PriceEstimate float64  `json:"priceEstimate"`
	CreatedAt     APITime  `json:"createdAt"`
	ExpiresAt     *APITime `json:"expiresAt,omitempty"`
}

// TimeUntilExpiry returns the display countdown derived from expiresAt.
// Expiry itself is enforced server-side; this is presentation only.
func (b *Booking) TimeUntilExpiry(now time.Time) (time.Duration, bool) {
	if b.ExpiresAt == nil || b.ExpiresAt.IsZero() {
		return 0, false
	}
	remaining := b.ExpiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Active reports whether the booking can still progress to charging.
func (b *Booking) Active() bool {
	return b.Status == BookingStatusConfirmed || b.Status == BookingStatusOngoing
}
