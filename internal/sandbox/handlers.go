package sandbox

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"chargehub/internal/models"
)

// Handlers exposes the sandbox wire surface.
type Handlers struct {
	service *Service
	logger  *zap.Logger
}

// NewHandlers returns handler struct.
func NewHandlers(service *Service, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	env := struct {
		Success bool        `json:"success"`
		Message string      `json:"message"`
		Data    interface{} `json:"data,omitempty"`
	}{Success: success, Message: message, Data: data}
	_ = json.NewEncoder(w).Encode(env)
}

// writeResult maps a service outcome to the envelope: refusals come back as
// success:false with their message, anything else as an internal error.
func (h *Handlers) writeResult(w http.ResponseWriter, data interface{}, err error) {
	if err == nil {
		writeEnvelope(w, http.StatusOK, true, "", data)
		return
	}
	var refusal *Refusal
	if errors.As(err, &refusal) {
		writeEnvelope(w, http.StatusOK, false, refusal.Error(), nil)
		return
	}
	h.logger.Error("request failed", zap.Error(err))
	writeEnvelope(w, http.StatusInternalServerError, false, "Internal error", nil)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

func decodeBody(r *http.Request, target interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, http.StatusOK, true, "ok", nil)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Signup handles POST /api/auth/signup.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid request body", nil)
		return
	}
	token, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeResult(w, nil, err)
		return
	}
	h.writeResult(w, tokenResponse{Token: token}, nil)
}

// Login handles POST /api/auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid request body", nil)
		return
	}
	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeResult(w, nil, err)
		return
	}
	h.writeResult(w, tokenResponse{Token: token}, nil)
}

// Stations handles GET /api/stations.
func (h *Handlers) Stations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.service.ListStations(r.Context())
	h.writeResult(w, stations, err)
}

// Station handles GET /api/stations/{id}.
func (h *Handlers) Station(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid station id", nil)
		return
	}
	station, err := h.service.GetStation(r.Context(), id)
	h.writeResult(w, station, err)
}

// SearchStations handles GET /api/stations/search. The sandbox returns the
// full scored list; proximity ordering is a client concern.
func (h *Handlers) SearchStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.service.ListStations(r.Context())
	h.writeResult(w, stations, err)
}

type createBookingRequest struct {
	SlotID    int64          `json:"slotId"`
	StartTime models.APITime `json:"startTime"`
	EndTime   models.APITime `json:"endTime"`
}

// CreateBooking handles POST /api/bookings.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}
	var req createBookingRequest
	if err := decodeBody(r, &req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid request body", nil)
		return
	}
	if req.SlotID <= 0 || !req.EndTime.After(req.StartTime.Time) {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid booking window", nil)
		return
	}
	booking, err := h.service.CreateBooking(r.Context(), userID, req.SlotID, req.StartTime.Time, req.EndTime.Time)
	h.writeResult(w, booking, err)
}

// MyBookings handles GET /api/bookings/me.
func (h *Handlers) MyBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}
	bookings, err := h.service.MyBookings(r.Context(), userID)
	h.writeResult(w, bookings, err)
}

// Booking handles GET /api/bookings/{id}.
func (h *Handlers) Booking(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}
	id, valid := pathID(r, "id")
	if !valid {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid booking id", nil)
		return
	}
	booking, err := h.service.GetBooking(r.Context(), userID, id)
	h.writeResult(w, booking, err)
}

// CancelBooking handles POST /api/bookings/{id}/cancel.
func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}
	id, valid := pathID(r, "id")
	if !valid {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid booking id", nil)
		return
	}
	booking, err := h.service.CancelBooking(r.Context(), userID, id)
	h.writeResult(w, booking, err)
}

type startChargingRequest struct {
	BookingID int64 `json:"bookingId"`
}

// StartCharging handles POST /api/charging/start.
func (h *Handlers) StartCharging(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}
	var req startChargingRequest
	if err := decodeBody(r, &req); err != nil || req.BookingID <= 0 {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid booking id", nil)
		return
	}
	session, err := h.service.StartCharging(r.Context(), userID, req.BookingID)
	h.writeResult(w, session, err)
}

// StopCharging handles POST /api/charging/stop/{id}.
func (h *Handlers) StopCharging(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}
	id, valid := pathID(r, "id")
	if !valid {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid session id", nil)
		return
	}
	session, err := h.service.StopCharging(r.Context(), userID, id)
	h.writeResult(w, session, err)
}

// Session handles GET /api/charging/session/{id}.
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}
	id, valid := pathID(r, "id")
	if !valid {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid session id", nil)
		return
	}
	session, err := h.service.Session(r.Context(), userID, id)
	h.writeResult(w, session, err)
}

// SessionByBooking handles GET /api/charging/booking/{id}.
func (h *Handlers) SessionByBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}
	id, valid := pathID(r, "id")
	if !valid {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid booking id", nil)
		return
	}
	session, err := h.service.SessionByBooking(r.Context(), userID, id)
	h.writeResult(w, session, err)
}

type createStationRequest struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PricePerKWh float64 `json:"pricePerKwh"`
}

// CreateStation handles POST /api/admin/stations.
func (h *Handlers) CreateStation(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}
	var req createStationRequest
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid station", nil)
		return
	}
	station, err := h.service.CreateStation(r.Context(), userID, &models.Station{
		Name:        req.Name,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		PricePerKWh: req.PricePerKWh,
	})
	h.writeResult(w, station, err)
}

type addSlotRequest struct {
	SlotNumber    int     `json:"slotNumber"`
	Type          string  `json:"type"`
	ConnectorType string  `json:"connectorType"`
	PowerKW       float64 `json:"powerRating"`
}

// AddSlot handles POST /api/admin/stations/{id}/slots.
func (h *Handlers) AddSlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}
	stationID, valid := pathID(r, "id")
	if !valid {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid station id", nil)
		return
	}
	var req addSlotRequest
	if err := decodeBody(r, &req); err != nil || req.PowerKW <= 0 {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid slot", nil)
		return
	}
	slot, err := h.service.AddSlot(r.Context(), userID, stationID, &models.ChargerSlot{
		SlotNumber:    req.SlotNumber,
		Type:          req.Type,
		ConnectorType: req.ConnectorType,
		PowerKW:       req.PowerKW,
	})
	h.writeResult(w, slot, err)
}

type slotStatusRequest struct {
	Status string `json:"status"`
}

// SetSlotStatus handles POST /api/admin/slots/{id}/status.
func (h *Handlers) SetSlotStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}
	slotID, valid := pathID(r, "id")
	if !valid {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid slot id", nil)
		return
	}
	var req slotStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid request body", nil)
		return
	}
	slot, err := h.service.SetSlotStatus(r.Context(), userID, slotID, req.Status)
	h.writeResult(w, slot, err)
}

// StationBookings handles GET /api/admin/stations/{id}/bookings.
func (h *Handlers) StationBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}
	stationID, valid := pathID(r, "id")
	if !valid {
		writeEnvelope(w, http.StatusBadRequest, false, "Invalid station id", nil)
		return
	}
	bookings, err := h.service.StationBookings(r.Context(), userID, stationID)
	h.writeResult(w, bookings, err)
}
