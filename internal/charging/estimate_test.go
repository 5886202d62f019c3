package charging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimateEnergy(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 12.5, EstimateEnergy(start, start.Add(30*time.Minute), 25))
	assert.Equal(t, 22.0, EstimateEnergy(start, start.Add(time.Hour), 22))
	assert.Equal(t, 0.0, EstimateEnergy(start, start, 25), "no elapsed time")
	assert.Equal(t, 0.0, EstimateEnergy(start, start.Add(-time.Minute), 25), "clock behind start")
	assert.Equal(t, 0.0, EstimateEnergy(start, start.Add(time.Hour), 0), "no power rating")
}

func TestEstimateCost(t *testing.T) {
	assert.Equal(t, 187.5, EstimateCost(12.5, 15))
	assert.Equal(t, 0.0, EstimateCost(0, 15))
	assert.Equal(t, 0.0, EstimateCost(12.5, 0))
}

func TestEstimateIsPure(t *testing.T) {
	// Same inputs, same output: nothing accumulates between calls.
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(45 * time.Minute)
	first := EstimateEnergy(start, now, 11)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, EstimateEnergy(start, now, 11))
	}
}
