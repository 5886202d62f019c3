package admin

import (
	"context"
	"fmt"
	"net/http"

	"chargehub/internal/models"
	"chargehub/internal/rest"
)

// Client wraps the owner/admin endpoints: station registration, slot
// management and per-station booking overviews.
type Client struct {
	rest *rest.Client
}

// NewClient returns client.
func NewClient(restClient *rest.Client) *Client {
	return &Client{rest: restClient}
}

// CreateStationInput describes a new station listing.
type CreateStationInput struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PricePerKWh float64 `json:"pricePerKwh"`
}

// CreateStation registers a station owned by the caller.
func (c *Client) CreateStation(ctx context.Context, input CreateStationInput) (*models.Station, error) {
	var station models.Station
	if err := c.rest.CallEnvelope(ctx, http.MethodPost, "/api/admin/stations", input, &station); err != nil {
		return nil, err
	}
	return &station, nil
}

// AddSlotInput describes a charger slot to attach to a station.
type AddSlotInput struct {
	SlotNumber    int     `json:"slotNumber"`
	Type          string  `json:"type"`
	ConnectorType string  `json:"connectorType"`
	PowerKW       float64 `json:"powerRating"`
}

// AddSlot attaches a slot to a station.
func (c *Client) AddSlot(ctx context.Context, stationID int64, input AddSlotInput) (*models.ChargerSlot, error) {
	var slot models.ChargerSlot
	path := fmt.Sprintf("/api/admin/stations/%d/slots", stationID)
	if err := c.rest.CallEnvelope(ctx, http.MethodPost, path, input, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// SetSlotStatus flips a slot's status, e.g. into or out of MAINTENANCE.
func (c *Client) SetSlotStatus(ctx context.Context, slotID int64, status string) (*models.ChargerSlot, error) {
	var slot models.ChargerSlot
	path := fmt.Sprintf("/api/admin/slots/%d/status", slotID)
	body := map[string]string{"status": status}
	if err := c.rest.CallEnvelope(ctx, http.MethodPost, path, body, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// StationBookings lists bookings against one of the caller's stations.
func (c *Client) StationBookings(ctx context.Context, stationID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	path := fmt.Sprintf("/api/admin/stations/%d/bookings", stationID)
	if err := c.rest.CallEnvelope(ctx, http.MethodGet, path, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
