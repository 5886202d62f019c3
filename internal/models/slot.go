package models

// Slot current type.
const (
	SlotTypeAC = "AC"
	SlotTypeDC = "DC"
)

// Slot statuses. The backend derives these from the bookings against the
// slot; clients must re-fetch rather than assume availability.
const (
	SlotStatusAvailable   = "AVAILABLE"
	SlotStatusReserved    = "RESERVED"
	SlotStatusBooked      = "BOOKED"
	SlotStatusCharging    = "CHARGING"
	SlotStatusMaintenance = "MAINTENANCE"
	SlotStatusOccupied    = "OCCUPIED"
)

// ChargerSlot is a physical charging point with a connector type and power
// rating, belonging to a station.
type ChargerSlot struct {
	ID            int64   `json:"id"`
	SlotNumber    int     `json:"slotNumber"`
	Type          string  `json:"type"`
	ConnectorType string  `json:"connectorType"`
	PowerKW       float64 `json:"powerRating"`
	Status        string  `json:"status"`
	StationID     int64   `json:"stationId"`
}

// Bookable reports whether a booking request against the slot is worth
// issuing at all. The backend has the final say.
func (s *ChargerSlot) Bookable() bool {
	return s.Status == SlotStatusAvailable
}
