package sandbox

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the sandbox routes. Auth-free: health, metrics, auth and
// station discovery; everything else requires a bearer token.
func NewRouter(handlers *Handlers, tokens *TokenService) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/auth/signup", handlers.Signup)
	mux.HandleFunc("POST /api/auth/login", handlers.Login)

	mux.HandleFunc("GET /api/stations", handlers.Stations)
	mux.HandleFunc("GET /api/stations/search", handlers.SearchStations)
	mux.HandleFunc("GET /api/stations/{id}", handlers.Station)

	authed := AuthMiddleware(tokens)
	protect := func(handler http.HandlerFunc) http.Handler {
		return authed(handler)
	}

	mux.Handle("POST /api/bookings", protect(handlers.CreateBooking))
	mux.Handle("GET /api/bookings/me", protect(handlers.MyBookings))
	mux.Handle("GET /api/bookings/{id}", protect(handlers.Booking))
	mux.Handle("POST /api/bookings/{id}/cancel", protect(handlers.CancelBooking))

	mux.Handle("POST /api/charging/start", protect(handlers.StartCharging))
	mux.Handle("POST /api/charging/stop/{id}", protect(handlers.StopCharging))
	mux.Handle("GET /api/charging/session/{id}", protect(handlers.Session))
	mux.Handle("GET /api/charging/booking/{id}", protect(handlers.SessionByBooking))

	mux.Handle("POST /api/admin/stations", protect(handlers.CreateStation))
	mux.Handle("POST /api/admin/stations/{id}/slots", protect(handlers.AddSlot))
	mux.Handle("POST /api/admin/slots/{id}/status", protect(handlers.SetSlotStatus))
	mux.Handle("GET /api/admin/stations/{id}/bookings", protect(handlers.StationBookings))

	return mux
}
