package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPITimeWireLayout(t *testing.T) {
	var s ChargingSession
	payload := `{"id":7,"booking":42,"startTime":"2024-01-01T10:00:00"}`
	require.NoError(t, json.Unmarshal([]byte(payload), &s))

	assert.Equal(t, int64(7), s.ID)
	assert.Equal(t, int64(42), s.BookingID)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), s.StartTime.Time)
	assert.False(t, s.Finished())

	out, err := json.Marshal(s.StartTime)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-01T10:00:00"`, string(out))
}

func TestAPITimeAcceptsRFC3339(t *testing.T) {
	var at APITime
	require.NoError(t, json.Unmarshal([]byte(`"2024-06-01T12:30:00Z"`), &at))
	assert.Equal(t, time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC), at.Time)

	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &at))
}

func TestCompletedSessionPayload(t *testing.T) {
	var s ChargingSession
	payload := `{"id":7,"booking":42,"startTime":"2024-01-01T10:00:00","endTime":"2024-01-01T11:00:00","energyConsumed":12.5,"cost":187.5}`
	require.NoError(t, json.Unmarshal([]byte(payload), &s))

	assert.True(t, s.Finished())
	require.NotNil(t, s.EnergyConsumed)
	require.NotNil(t, s.Cost)
	assert.Equal(t, 12.5, *s.EnergyConsumed)
	assert.Equal(t, 187.5, *s.Cost)
}

func TestBookingCountdown(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	b := Booking{Status: BookingStatusConfirmed}
	_, ok := b.TimeUntilExpiry(now)
	assert.False(t, ok, "no expiresAt means no countdown")

	exp := NewAPITime(now.Add(10 * time.Minute))
	b.ExpiresAt = &exp
	remaining, ok := b.TimeUntilExpiry(now)
	require.True(t, ok)
	assert.Equal(t, 10*time.Minute, remaining)

	remaining, ok = b.TimeUntilExpiry(now.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), remaining, "past expiry clamps to zero")
}

func TestBookingActive(t *testing.T) {
	assert.True(t, (&Booking{Status: BookingStatusConfirmed}).Active())
	assert.True(t, (&Booking{Status: BookingStatusOngoing}).Active())
	assert.False(t, (&Booking{Status: BookingStatusExpired}).Active())
	assert.False(t, (&Booking{Status: BookingStatusCancelled}).Active())
}
