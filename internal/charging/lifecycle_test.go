package charging

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargehub/internal/models"
	"chargehub/internal/rest"
)

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	phases := make([]Phase, len(r.states))
	for i, s := range r.states {
		phases[i] = s.Phase
	}
	return phases
}

func newLifecycle(t *testing.T, handler http.Handler) (*Lifecycle, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := rest.NewClient(srv.URL, srv.Client(), nil)
	return New(client, nil), srv
}

func TestStartSuccessBecomesActive(t *testing.T) {
	lc, _ := newLifecycle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/charging/start", r.URL.Path)
		w.Write([]byte(`{"success":true,"message":"","data":{"id":7,"booking":42,"startTime":"2024-01-01T10:00:00"}}`))
	}))

	rec := &recorder{}
	lc.Subscribe(rec.record)

	require.NoError(t, lc.Start(context.Background(), 42))

	state := lc.State()
	assert.Equal(t, PhaseActive, state.Phase)
	require.NotNil(t, state.Session)
	assert.Equal(t, int64(7), state.Session.ID)
	assert.Equal(t, int64(42), state.Session.BookingID)
	assert.Equal(t, []Phase{PhaseStarting, PhaseActive}, rec.phases())
}

func TestStopSuccessBecomesCompletedWithServerValues(t *testing.T) {
	lc, _ := newLifecycle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/charging/session/7":
			w.Write([]byte(`{"success":true,"message":"","data":{"id":7,"booking":42,"startTime":"2024-01-01T10:00:00"}}`))
		case "/api/charging/stop/7":
			require.Equal(t, http.MethodPost, r.Method)
			w.Write([]byte(`{"success":true,"message":"","data":{"id":7,"booking":42,"startTime":"2024-01-01T10:00:00","endTime":"2024-01-01T11:00:00","energyConsumed":12.5,"cost":187.5}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	require.NoError(t, lc.Load(context.Background(), 7))
	require.Equal(t, PhaseActive, lc.State().Phase)

	require.NoError(t, lc.Stop(context.Background(), 7))

	state := lc.State()
	assert.Equal(t, PhaseCompleted, state.Phase)
	require.NotNil(t, state.Session)
	require.NotNil(t, state.Session.EndTime)
	require.NotNil(t, state.Session.EnergyConsumed)
	require.NotNil(t, state.Session.Cost)
	// Authoritative values come solely from the stop response.
	assert.Equal(t, 12.5, *state.Session.EnergyConsumed)
	assert.Equal(t, 187.5, *state.Session.Cost)
	assert.Equal(t, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), state.Session.EndTime.Time)
}

func TestStartServerErrorBecomesFailedAndRetries(t *testing.T) {
	var calls int
	lc, _ := newLifecycle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"success":true,"message":"","data":{"id":7,"booking":42,"startTime":"2024-01-01T10:00:00"}}`))
	}))

	require.NoError(t, lc.Start(context.Background(), 42))

	state := lc.State()
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.Equal(t, "Failed to start charging: Internal Server Error", state.Reason)

	// Retry re-issues the same start call.
	require.NoError(t, lc.Retry(context.Background()))
	assert.Equal(t, 2, calls)
	assert.Equal(t, PhaseActive, lc.State().Phase)
}

func TestLoadByBookingNotFound(t *testing.T) {
	lc, _ := newLifecycle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/charging/booking/42", r.URL.Path)
		w.Write([]byte(`{"success":false,"message":"Session not found"}`))
	}))

	require.NoError(t, lc.LoadByBooking(context.Background(), 42))

	state := lc.State()
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.Equal(t, "Session not found", state.Reason)
}

func TestStopRejectedBeforeActive(t *testing.T) {
	lc, _ := newLifecycle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	err := lc.Stop(context.Background(), 7)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, PhaseIdle, lc.State().Phase)
}

func TestOverlappingCallsRejected(t *testing.T) {
	release := make(chan struct{})
	lc, _ := newLifecycle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"success":true,"message":"","data":{"id":7,"booking":42,"startTime":"2024-01-01T10:00:00"}}`))
	}))

	done := make(chan error, 1)
	go func() { done <- lc.Start(context.Background(), 42) }()

	waitFor(t, time.Second, func() bool { return lc.State().Phase == PhaseStarting })

	assert.ErrorIs(t, lc.Start(context.Background(), 42), ErrOperationInFlight)
	assert.ErrorIs(t, lc.Stop(context.Background(), 7), ErrOperationInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, PhaseActive, lc.State().Phase)
}

func TestCompletedIsTerminal(t *testing.T) {
	lc, _ := newLifecycle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/charging/session/7":
			w.Write([]byte(`{"success":true,"message":"","data":{"id":7,"booking":42,"startTime":"2024-01-01T10:00:00"}}`))
		case "/api/charging/stop/7":
			w.Write([]byte(`{"success":true,"message":"","data":{"id":7,"booking":42,"startTime":"2024-01-01T10:00:00","endTime":"2024-01-01T11:00:00","energyConsumed":12.5,"cost":187.5}}`))
		}
	}))

	require.NoError(t, lc.Load(context.Background(), 7))
	require.NoError(t, lc.Stop(context.Background(), 7))
	require.Equal(t, PhaseCompleted, lc.State().Phase)

	assert.ErrorIs(t, lc.Start(context.Background(), 42), ErrCompleted)
	assert.ErrorIs(t, lc.Stop(context.Background(), 7), ErrCompleted)
	assert.Equal(t, PhaseCompleted, lc.State().Phase)
}

func TestStaleStartResponseDoesNotRevertCompleted(t *testing.T) {
	lc, _ := newLifecycle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/charging/session/7":
			w.Write([]byte(`{"success":true,"message":"","data":{"id":7,"booking":42,"startTime":"2024-01-01T10:00:00"}}`))
		case "/api/charging/stop/7":
			w.Write([]byte(`{"success":true,"message":"","data":{"id":7,"booking":42,"startTime":"2024-01-01T10:00:00","endTime":"2024-01-01T11:00:00","energyConsumed":12.5,"cost":187.5}}`))
		}
	}))

	require.NoError(t, lc.Load(context.Background(), 7))
	require.NoError(t, lc.Stop(context.Background(), 7))
	require.Equal(t, PhaseCompleted, lc.State().Phase)

	rec := &recorder{}
	lc.Subscribe(rec.record)

	// A slow start response from before the stop arrives late.
	lc.mu.Lock()
	seq := lc.seq
	lc.mu.Unlock()
	late := &models.ChargingSession{ID: 99, BookingID: 42}
	lc.finish(seq, operation{kind: opStart, id: 42}, late, nil)
	lc.finish(seq-1, operation{kind: opStart, id: 42}, late, nil)

	state := lc.State()
	assert.Equal(t, PhaseCompleted, state.Phase)
	assert.Equal(t, int64(7), state.Session.ID, "stale session must not be applied")
	assert.Empty(t, rec.phases(), "stale responses emit nothing")
}

func TestCanceledRequestEmitsNothing(t *testing.T) {
	lc, _ := newLifecycle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client disconnect
		// and cancel the request context.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))

	rec := &recorder{}
	lc.Subscribe(rec.record)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Start(ctx, 42) }()

	waitFor(t, time.Second, func() bool { return lc.State().Phase == PhaseStarting })
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, PhaseIdle, lc.State().Phase, "state reverts without a Failed emission")
	assert.Equal(t, []Phase{PhaseStarting}, rec.phases())
}

func TestUnsubscribeStopsEmissions(t *testing.T) {
	lc, _ := newLifecycle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"message":"","data":{"id":7,"booking":42,"startTime":"2024-01-01T10:00:00"}}`))
	}))

	rec := &recorder{}
	cancel := lc.Subscribe(rec.record)
	cancel()

	require.NoError(t, lc.Start(context.Background(), 42))
	assert.Empty(t, rec.phases())
}

func TestClosedLifecycleRejectsEverything(t *testing.T) {
	lc, _ := newLifecycle(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	lc.Close()
	assert.ErrorIs(t, lc.Start(context.Background(), 42), ErrClosed)
	assert.ErrorIs(t, lc.Load(context.Background(), 7), ErrClosed)
	assert.ErrorIs(t, lc.Retry(context.Background()), ErrClosed)
}

func TestInvalidIDsRejected(t *testing.T) {
	lc := New(nil, nil)
	assert.ErrorIs(t, lc.Start(context.Background(), 0), ErrInvalidID)
	assert.ErrorIs(t, lc.Stop(context.Background(), -1), ErrInvalidID)
	assert.ErrorIs(t, lc.Load(context.Background(), 0), ErrInvalidID)
	assert.ErrorIs(t, lc.LoadByBooking(context.Background(), -5), ErrInvalidID)
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
