package booking

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"chargehub/internal/models"
	"chargehub/internal/rest"
)

// Client wraps the booking endpoints. Bookings are owned by the backend;
// this client only triggers transitions and renders projections.
type Client struct {
	rest *rest.Client
}

// NewClient returns client.
func NewClient(restClient *rest.Client) *Client {
	return &Client{rest: restClient}
}

type createRequest struct {
	SlotID    int64          `json:"slotId"`
	StartTime models.APITime `json:"startTime"`
	EndTime   models.APITime `json:"endTime"`
}

// Create requests a booking for the slot over the given window.
func (c *Client) Create(ctx context.Context, slotID int64, start, end time.Time) (*models.Booking, error) {
	if slotID <= 0 {
		return nil, fmt.Errorf("booking: slot id must be positive")
	}
	if !end.After(start) {
		return nil, fmt.Errorf("booking: end must be after start")
	}
	var b models.Booking
	err := c.rest.CallEnvelope(ctx, http.MethodPost, "/api/bookings", createRequest{
		SlotID:    slotID,
		StartTime: models.NewAPITime(start),
		EndTime:   models.NewAPITime(end),
	}, &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Get fetches a single booking.
func (c *Client) Get(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	if err := c.rest.CallEnvelope(ctx, http.MethodGet, fmt.Sprintf("/api/bookings/%d", id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Cancel cancels a booking. Expiry is server-enforced; cancelling an
// already-expired booking comes back as a refusal from the backend.
func (c *Client) Cancel(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	if err := c.rest.CallEnvelope(ctx, http.MethodPost, fmt.Sprintf("/api/bookings/%d/cancel", id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListMine returns the caller's bookings, newest first.
func (c *Client) ListMine(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.rest.CallEnvelope(ctx, http.MethodGet, "/api/bookings/me", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
