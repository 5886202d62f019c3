package models

// Station describes a charging location listed on the marketplace.
type Station struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Address     string        `json:"address"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	PricePerKWh float64       `json:"pricePerKwh"`
	OwnerID     int64         `json:"ownerId"`
	Slots       []ChargerSlot `json:"slots,omitempty"`
}

// StationWithScore carries the server-computed ranking score alongside the
// station. The score is rendered as-is; clients never recompute it.
type StationWithScore struct {
	Station
	Score      float64 `json:"score"`
	DistanceKm float64 `json:"distanceKm,omitempty"`
}
