package stations

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"chargehub/internal/models"
	"chargehub/internal/rest"
)

// Client wraps station discovery. Ranking scores arrive precomputed from
// the backend and are rendered as-is.
type Client struct {
	rest *rest.Client
}

// NewClient returns client.
func NewClient(restClient *rest.Client) *Client {
	return &Client{rest: restClient}
}

// List returns all stations with their server-side scores.
func (c *Client) List(ctx context.Context) ([]models.StationWithScore, error) {
	var stations []models.StationWithScore
	if err := c.rest.CallEnvelope(ctx, http.MethodGet, "/api/stations", nil, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// Get fetches one station including its slots.
func (c *Client) Get(ctx context.Context, id int64) (*models.Station, error) {
	var station models.Station
	if err := c.rest.CallEnvelope(ctx, http.MethodGet, fmt.Sprintf("/api/stations/%d", id), nil, &station); err != nil {
		return nil, err
	}
	return &station, nil
}

// Search queries stations near the given point.
func (c *Client) Search(ctx context.Context, lat, lng float64) ([]models.StationWithScore, error) {
	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%f", lat))
	query.Set("lng", fmt.Sprintf("%f", lng))

	var stations []models.StationWithScore
	if err := c.rest.CallEnvelope(ctx, http.MethodGet, "/api/stations/search?"+query.Encode(), nil, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// SortByDistance fills DistanceKm from the given point and orders the list
// nearest first. Pure presentation ordering; scores are untouched.
func SortByDistance(stations []models.StationWithScore, lat, lng float64) {
	for i := range stations {
		stations[i].DistanceKm = Haversine(lat, lng, stations[i].Latitude, stations[i].Longitude)
	}
	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].DistanceKm < stations[j].DistanceKm
	})
}
