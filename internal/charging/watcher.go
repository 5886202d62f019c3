package charging

import (
	"context"
	"time"
)

// Estimate is one display sample produced by the Watcher.
type Estimate struct {
	Elapsed   time.Duration
	EnergyKWh float64
	Cost      float64
}

// Watcher polls the display-only estimate at a fixed interval while the
// lifecycle is Active and hands each sample to the callback. It owns no
// state of its own; every sample is recomputed from the session start time.
type Watcher struct {
	lifecycle  *Lifecycle
	interval   time.Duration
	powerKW    float64
	ratePerKWh float64
	fn         func(Estimate)

	now func() time.Time
}

// NewWatcher builds a watcher. interval <= 0 falls back to 5s.
func NewWatcher(lc *Lifecycle, interval time.Duration, powerKW, ratePerKWh float64, fn func(Estimate)) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		lifecycle:  lc,
		interval:   interval,
		powerKW:    powerKW,
		ratePerKWh: ratePerKWh,
		fn:         fn,
		now:        time.Now,
	}
}

// Run samples until the context is done or the lifecycle leaves Active.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state := w.lifecycle.State()
			if state.Phase != PhaseActive || state.Session == nil {
				return
			}
			start := state.Session.StartTime.Time
			now := w.now()
			energy := EstimateEnergy(start, now, w.powerKW)
			w.fn(Estimate{
				Elapsed:   now.Sub(start),
				EnergyKWh: energy,
				Cost:      EstimateCost(energy, w.ratePerKWh),
			})
		}
	}
}
