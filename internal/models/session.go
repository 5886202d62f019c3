package models

// ChargingSession is the record of an active or completed charging event
// tied to a booking. The backend owns it; energyConsumed and cost are only
// populated once the session has been stopped.
type ChargingSession struct {
	ID             int64    `json:"id"`
	BookingID      int64    `json:"booking"`
	StartTime      APITime  `json:"startTime"`
	EndTime        *APITime `json:"endTime,omitempty"`
	EnergyConsumed *float64 `json:"energyConsumed,omitempty"`
	Cost           *float64 `json:"cost,omitempty"`
}

// Finished reports whether the backend has closed the session.
func (s *ChargingSession) Finished() bool {
	return s.EndTime != nil && !s.EndTime.IsZero()
}
