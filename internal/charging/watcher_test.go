package charging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargehub/internal/models"
)

func activeLifecycle(start time.Time) *Lifecycle {
	lc := New(nil, nil)
	lc.state = State{
		Phase: PhaseActive,
		Session: &models.ChargingSession{
			ID:        7,
			BookingID: 42,
			StartTime: models.NewAPITime(start),
		},
	}
	return lc
}

func TestWatcherSamplesWhileActive(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	lc := activeLifecycle(start)

	samples := make(chan Estimate, 16)
	w := NewWatcher(lc, 5*time.Millisecond, 22, 15, func(e Estimate) { samples <- e })
	w.now = func() time.Time { return start.Add(30 * time.Minute) }

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go w.Run(ctx)

	var got Estimate
	select {
	case got = <-samples:
	case <-ctx.Done():
		t.Fatal("no sample produced")
	}

	assert.Equal(t, 30*time.Minute, got.Elapsed)
	assert.Equal(t, 11.0, got.EnergyKWh)
	assert.Equal(t, 165.0, got.Cost)
}

func TestWatcherStopsWhenStateLeavesActive(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	lc := activeLifecycle(start)

	w := NewWatcher(lc, 5*time.Millisecond, 22, 15, func(Estimate) {})

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	lc.mu.Lock()
	lc.state = State{Phase: PhaseCompleted, Session: lc.state.Session}
	lc.mu.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after leaving Active")
	}
}

func TestWatcherDefaultInterval(t *testing.T) {
	lc := New(nil, nil)
	w := NewWatcher(lc, 0, 22, 15, func(Estimate) {})
	require.Equal(t, 5*time.Second, w.interval)
}
