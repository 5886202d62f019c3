package sandbox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chargehub/internal/admin"
	"chargehub/internal/auth"
	"chargehub/internal/authapi"
	"chargehub/internal/booking"
	"chargehub/internal/charging"
	"chargehub/internal/rest"
	"chargehub/internal/stations"
)

// clientSet is one logged-in identity talking to the sandbox through the
// real SDK clients, proving the wire contract end to end.
type clientSet struct {
	tokens    *auth.TokenProvider
	auth      *authapi.Client
	stations  *stations.Client
	bookings  *booking.Client
	admin     *admin.Client
	lifecycle *charging.Lifecycle
}

func newClientSet(t *testing.T, baseURL string) *clientSet {
	t.Helper()
	tokens := auth.NewTokenProvider()
	restClient := rest.NewClient(baseURL, rest.NewDefaultHTTPClient(5*time.Second), tokens)
	return &clientSet{
		tokens:    tokens,
		auth:      authapi.NewClient(restClient, tokens),
		stations:  stations.NewClient(restClient),
		bookings:  booking.NewClient(restClient),
		admin:     admin.NewClient(restClient),
		lifecycle: charging.New(restClient, zap.NewNop()),
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := NewMemoryStore()
	svc := NewService(store, nil, NewTokenService("test-secret", time.Hour), NewPasswordHasher(0), 15*time.Minute, nil)
	handlers := NewHandlers(svc, zap.NewNop())
	server := httptest.NewServer(NewRouter(handlers, svc.tokens))
	t.Cleanup(server.Close)
	return server
}

func TestEndToEndChargingFlow(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	owner := newClientSet(t, server.URL)
	require.NoError(t, owner.auth.Signup(ctx, "owner@example.com", "secret"))

	station, err := owner.admin.CreateStation(ctx, admin.CreateStationInput{
		Name:        "Central",
		Address:     "Main st 1",
		PricePerKWh: 15,
	})
	require.NoError(t, err)

	slot, err := owner.admin.AddSlot(ctx, station.ID, admin.AddSlotInput{
		SlotNumber:    1,
		Type:          "AC",
		ConnectorType: "Type2",
		PowerKW:       22,
	})
	require.NoError(t, err)

	driver := newClientSet(t, server.URL)
	require.NoError(t, driver.auth.Signup(ctx, "driver@example.com", "secret"))

	listed, err := driver.stations.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.InDelta(t, 1.0, listed[0].Score, 1e-9)

	start := time.Now().UTC()
	b, err := driver.bookings.Create(ctx, slot.ID, start, start.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, "CONFIRMED", b.Status)
	require.NotNil(t, b.ExpiresAt)

	require.NoError(t, driver.lifecycle.Start(ctx, b.ID))
	state := driver.lifecycle.State()
	require.Equal(t, charging.PhaseActive, state.Phase)
	require.NotNil(t, state.Session)
	require.Equal(t, b.ID, state.Session.BookingID)

	sessionID := state.Session.ID
	require.NoError(t, driver.lifecycle.Stop(ctx, sessionID))
	state = driver.lifecycle.State()
	require.Equal(t, charging.PhaseCompleted, state.Phase)
	require.NotNil(t, state.Session.EndTime)
	require.NotNil(t, state.Session.EnergyConsumed)
	require.NotNil(t, state.Session.Cost)

	mine, err := driver.bookings.ListMine(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "COMPLETED", mine[0].Status)

	stationBookings, err := owner.admin.StationBookings(ctx, station.ID)
	require.NoError(t, err)
	require.Len(t, stationBookings, 1)
}

func TestEndToEndRefusalMessages(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	owner := newClientSet(t, server.URL)
	require.NoError(t, owner.auth.Signup(ctx, "owner@example.com", "secret"))
	station, err := owner.admin.CreateStation(ctx, admin.CreateStationInput{Name: "Central", PricePerKWh: 10})
	require.NoError(t, err)
	slot, err := owner.admin.AddSlot(ctx, station.ID, admin.AddSlotInput{SlotNumber: 1, Type: "AC", PowerKW: 11})
	require.NoError(t, err)

	driver := newClientSet(t, server.URL)
	require.NoError(t, driver.auth.Signup(ctx, "driver@example.com", "secret"))

	start := time.Now().UTC()
	b, err := driver.bookings.Create(ctx, slot.ID, start, start.Add(time.Hour))
	require.NoError(t, err)

	// No session started yet: resume by booking fails with the exact
	// backend message, carried verbatim into the lifecycle reason.
	require.NoError(t, driver.lifecycle.LoadByBooking(ctx, b.ID))
	state := driver.lifecycle.State()
	require.Equal(t, charging.PhaseFailed, state.Phase)
	require.Equal(t, "Session not found", state.Reason)

	var apiErr *rest.APIError
	_, err = driver.bookings.Get(ctx, 9999)
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "Booking not found", apiErr.Message)

	_, err = driver.admin.AddSlot(ctx, station.ID, admin.AddSlotInput{SlotNumber: 2, Type: "AC", PowerKW: 11})
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "Not allowed", apiErr.Message)
}

func TestEndToEndAuthRequired(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	anonymous := newClientSet(t, server.URL)

	_, err := anonymous.stations.List(ctx)
	require.NoError(t, err)

	var apiErr *rest.APIError
	_, err = anonymous.bookings.ListMine(ctx)
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	require.NoError(t, anonymous.lifecycle.Start(ctx, 1))
	state := anonymous.lifecycle.State()
	require.Equal(t, charging.PhaseFailed, state.Phase)
}

func TestEndToEndLoginFlow(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	user := newClientSet(t, server.URL)
	require.NoError(t, user.auth.Signup(ctx, "user@example.com", "secret"))
	require.NotEmpty(t, user.tokens.Get())

	require.NoError(t, user.auth.Logout())
	require.Empty(t, user.tokens.Get())

	var apiErr *rest.APIError
	err := user.auth.Login(ctx, "user@example.com", "wrong")
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "Invalid email or password", apiErr.Message)

	require.NoError(t, user.auth.Login(ctx, "user@example.com", "secret"))
	require.True(t, user.tokens.Valid(time.Now()))
}
