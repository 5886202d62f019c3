package charging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"chargehub/internal/metrics"
	"chargehub/internal/models"
	"chargehub/internal/rest"
)

// Phase of the session lifecycle.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseStarting  Phase = "starting"
	PhaseActive    Phase = "active"
	PhaseStopping  Phase = "stopping"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// State is a snapshot of the lifecycle observable by callers. Session is set
// once a session is known (Active, Stopping, Completed, and Failed after a
// stop attempt); Reason is set for Failed only.
type State struct {
	Phase   Phase
	Session *models.ChargingSession
	Reason  string
}

// Errors returned for calls that are invalid in the current state. Remote
// failures never surface here; they land in a Failed state instead.
var (
	ErrInvalidID         = errors.New("charging: id must be positive")
	ErrOperationInFlight = errors.New("charging: operation already in flight")
	ErrInvalidTransition = errors.New("charging: operation not valid in current state")
	ErrCompleted         = errors.New("charging: session already completed")
	ErrClosed            = errors.New("charging: lifecycle closed")
	ErrNothingToRetry    = errors.New("charging: no failed operation to retry")
)

type opKind int

const (
	opNone opKind = iota
	opStart
	opStop
	opLoadSession
	opLoadBooking
)

type operation struct {
	kind opKind
	id   int64
}

// Lifecycle mediates the booking-to-charging transition against the remote
// API and presents it as a small state machine. One instance owns one
// logical session; at most one operation is in flight at a time. Instances
// share no mutable state with each other.
type Lifecycle struct {
	client *rest.Client
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	prev     State
	seq      uint64
	inflight bool
	lastOp   operation
	subs     map[int]func(State)
	nextSub  int
	closed   bool
}

// New returns a lifecycle in the Idle state.
func New(client *rest.Client, logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{
		client: client,
		logger: logger,
		state:  State{Phase: PhaseIdle},
		subs:   make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Subscribe registers a callback invoked on every state emission and
// returns a cancel func. Callbacks run on the operation's goroutine and
// should return quickly.
func (l *Lifecycle) Subscribe(fn func(State)) func() {
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

// Close detaches all subscribers and discards the result of any in-flight
// request. The remote operation, once sent, still runs to completion
// server-side.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	l.closed = true
	l.seq++
	l.inflight = false
	l.subs = make(map[int]func(State))
	l.mu.Unlock()
}

// Start issues the remote "start charging" call for the booking. On success
// the state becomes Active with the returned session; on failure, Failed.
// There is no automatic retry.
func (l *Lifecycle) Start(ctx context.Context, bookingID int64) error {
	if bookingID <= 0 {
		return ErrInvalidID
	}
	return l.run(ctx, operation{kind: opStart, id: bookingID})
}

// Stop issues the remote "stop charging" call for the session. Only
// meaningful once Active has been observed.
func (l *Lifecycle) Stop(ctx context.Context, sessionID int64) error {
	if sessionID <= 0 {
		return ErrInvalidID
	}
	return l.run(ctx, operation{kind: opStop, id: sessionID})
}

// Load fetches the current session state by session id without mutating
// anything server-side. Used when resuming after a restart; success goes
// straight to Active, bypassing Starting.
func (l *Lifecycle) Load(ctx context.Context, sessionID int64) error {
	if sessionID <= 0 {
		return ErrInvalidID
	}
	return l.run(ctx, operation{kind: opLoadSession, id: sessionID})
}

// LoadByBooking is Load keyed by booking id, for callers resuming from a
// booking-detail view.
func (l *Lifecycle) LoadByBooking(ctx context.Context, bookingID int64) error {
	if bookingID <= 0 {
		return ErrInvalidID
	}
	return l.run(ctx, operation{kind: opLoadBooking, id: bookingID})
}

// Retry re-issues the operation that produced the current Failed state.
func (l *Lifecycle) Retry(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if l.state.Phase != PhaseFailed {
		l.mu.Unlock()
		return ErrInvalidTransition
	}
	op := l.lastOp
	l.mu.Unlock()

	if op.kind == opNone {
		return ErrNothingToRetry
	}
	return l.run(ctx, op)
}

func (l *Lifecycle) run(ctx context.Context, op operation) error {
	seq, err := l.begin(op)
	if err != nil {
		return err
	}

	var session models.ChargingSession
	var callErr error
	switch op.kind {
	case opStart:
		callErr = l.client.CallEnvelope(ctx, http.MethodPost, "/api/charging/start",
			map[string]int64{"bookingId": op.id}, &session)
	case opStop:
		callErr = l.client.CallEnvelope(ctx, http.MethodPost,
			fmt.Sprintf("/api/charging/stop/%d", op.id), nil, &session)
	case opLoadSession:
		callErr = l.client.CallEnvelope(ctx, http.MethodGet,
			fmt.Sprintf("/api/charging/session/%d", op.id), nil, &session)
	case opLoadBooking:
		callErr = l.client.CallEnvelope(ctx, http.MethodGet,
			fmt.Sprintf("/api/charging/booking/%d", op.id), nil, &session)
	}

	l.finish(seq, op, &session, callErr)
	return nil
}

// begin validates the transition, marks the operation in flight and emits
// the Starting/Stopping state where the transition has one.
func (l *Lifecycle) begin(op operation) (uint64, error) {
	l.mu.Lock()

	if l.closed {
		l.mu.Unlock()
		return 0, ErrClosed
	}
	if l.inflight {
		l.mu.Unlock()
		return 0, ErrOperationInFlight
	}
	if l.state.Phase == PhaseCompleted {
		l.mu.Unlock()
		return 0, ErrCompleted
	}

	switch op.kind {
	case opStart:
		if l.state.Phase != PhaseIdle && l.state.Phase != PhaseFailed {
			l.mu.Unlock()
			return 0, ErrInvalidTransition
		}
	case opStop:
		// A failed stop may be re-issued; anything else needs Active first.
		fromFailedStop := l.state.Phase == PhaseFailed && l.lastOp.kind == opStop
		if l.state.Phase != PhaseActive && !fromFailedStop {
			l.mu.Unlock()
			return 0, ErrInvalidTransition
		}
	}

	l.seq++
	seq := l.seq
	l.inflight = true
	l.lastOp = op
	l.prev = l.state

	var emitState *State
	switch op.kind {
	case opStart:
		l.state = State{Phase: PhaseStarting}
		emitState = &l.state
	case opStop:
		l.state = State{Phase: PhaseStopping, Session: l.state.Session}
		emitState = &l.state
	}

	var subs []func(State)
	var st State
	if emitState != nil {
		subs = l.subscribers()
		st = *emitState
	}
	l.mu.Unlock()

	if emitState != nil {
		metrics.IncTransition(string(st.Phase))
		l.emit(subs, st)
	}
	return seq, nil
}

// finish applies the remote outcome, unless a newer operation superseded
// this one or the lifecycle already reached its terminal state.
func (l *Lifecycle) finish(seq uint64, op operation, session *models.ChargingSession, callErr error) {
	l.mu.Lock()

	if l.closed || seq != l.seq || l.state.Phase == PhaseCompleted {
		// Stale response: a newer request owns the state now.
		if seq == l.seq {
			l.inflight = false
		}
		l.mu.Unlock()
		return
	}
	l.inflight = false

	if callErr != nil && errors.Is(callErr, context.Canceled) {
		// Caller navigated away; no state emission for this request.
		l.state = l.prev
		l.mu.Unlock()
		return
	}

	var next State
	if callErr != nil {
		next = State{Phase: PhaseFailed, Session: l.state.Session, Reason: failureReason(op, callErr)}
	} else {
		switch op.kind {
		case opStop:
			next = State{Phase: PhaseCompleted, Session: session}
		default:
			next = State{Phase: PhaseActive, Session: session}
		}
	}
	l.state = next
	subs := l.subscribers()
	l.mu.Unlock()

	if callErr != nil {
		l.logger.Warn("charging operation failed",
			zap.Int64("id", op.id),
			zap.String("reason", next.Reason),
			zap.Error(callErr),
		)
	} else {
		l.logger.Info("charging state changed",
			zap.String("phase", string(next.Phase)),
			zap.Int64("session_id", session.ID),
		)
	}
	metrics.IncTransition(string(next.Phase))
	l.emit(subs, next)
}

func (l *Lifecycle) subscribers() []func(State) {
	subs := make([]func(State), 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (l *Lifecycle) emit(subs []func(State), st State) {
	for _, fn := range subs {
		fn(st)
	}
}

func failureReason(op operation, err error) string {
	label := "Failed to load session"
	switch op.kind {
	case opStart:
		label = "Failed to start charging"
	case opStop:
		label = "Failed to stop charging"
	}

	var apiErr *rest.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if text := http.StatusText(apiErr.StatusCode); text != "" {
			return label + ": " + text
		}
	}
	return label + ": " + err.Error()
}
