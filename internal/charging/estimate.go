package charging

import "time"

// Display-only estimates. The authoritative energy and cost arrive in the
// Completed payload of the stop call; these values are recomputed from
// elapsed time on demand and never stored.

// EstimateEnergy returns the energy in kWh a slot of the given power rating
// would have delivered between start and now.
func EstimateEnergy(start, now time.Time, powerKW float64) float64 {
	if powerKW <= 0 || !now.After(start) {
		return 0
	}
	return now.Sub(start).Hours() * powerKW
}

// EstimateCost prices an energy estimate at a fixed per-kWh rate.
func EstimateCost(energyKWh, ratePerKWh float64) float64 {
	if energyKWh <= 0 || ratePerKWh <= 0 {
		return 0
	}
	return energyKWh * ratePerKWh
}
