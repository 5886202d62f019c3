package stations

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chargehub/internal/models"
)

func TestHaversineKnownDistance(t *testing.T) {
	// Berlin to Munich, roughly 504 km.
	d := Haversine(52.5200, 13.4050, 48.1351, 11.5820)
	assert.InDelta(t, 504, d, 5)

	assert.Equal(t, 0.0, Haversine(48.0, 11.0, 48.0, 11.0))
}

func TestSortByDistance(t *testing.T) {
	stations := []models.StationWithScore{
		{Station: models.Station{ID: 1, Latitude: 48.1351, Longitude: 11.5820}, Score: 0.9}, // Munich
		{Station: models.Station{ID: 2, Latitude: 52.5200, Longitude: 13.4050}, Score: 0.5}, // Berlin
	}

	// Observer in Hamburg: Berlin is closer than Munich.
	SortByDistance(stations, 53.5511, 9.9937)

	assert.Equal(t, int64(2), stations[0].ID)
	assert.Equal(t, int64(1), stations[1].ID)
	assert.Less(t, stations[0].DistanceKm, stations[1].DistanceKm)
	assert.Equal(t, 0.5, stations[0].Score, "scores stay server-owned")
}
