// Package runtime implements the Agent Runtime: the persistent
// bidirectional control channel that multiplexes heartbeats, provisioning
// events, and concurrent assignment executions over a websocket, using the
// Function Registry as its dispatch table.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nordaxis/hubagent/internal/hubclient"
	"github.com/nordaxis/hubagent/internal/metrics"
	"github.com/nordaxis/hubagent/internal/registry"
)

// State is one phase of the runtime's lifecycle state machine.
type State int32

const (
	StateDial State = iota
	StateHandshake
	StateReady
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDial:
		return "DIAL"
	case StateHandshake:
		return "HANDSHAKE"
	case StateReady:
		return "READY"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Config wires a Runtime to its collaborators.
type Config struct {
	ControlURL string
	InstanceID string
	Token      string
	Registry   *registry.Registry
	Hub        *hubclient.Client
	Log        *slog.Logger
	Header     http.Header // optional extra dial headers (e.g. bearer auth)
}

// Runtime owns the websocket connection and the assignment set for one
// control-channel session. A Runtime is single-use: Run dials once, runs
// until the session ends, and returns.
type Runtime struct {
	cfg Config
	log *slog.Logger

	state atomic.Int32

	conn  wsConn
	queue *outboundQueue

	assignments *assignmentTable
	provisions  *provisionAdoption
}

// New constructs a Runtime. Call Run to dial and start the session.
func New(cfg Config) *Runtime {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Runtime{
		cfg:         cfg,
		log:         log,
		assignments: newAssignmentTable(),
		provisions:  newProvisionAdoption(),
	}
}

func (r *Runtime) setState(s State) { r.state.Store(int32(s)) }

// State reports the runtime's current lifecycle phase.
func (r *Runtime) State() State { return State(r.state.Load()) }

// Run dials the control channel and blocks until the session ends: a
// transport or protocol error, ctx cancellation, or a normal close by the
// hub (the only case that returns nil). It never reconnects — that is a
// layer above this one.
func (r *Runtime) Run(ctx context.Context) error {
	r.setState(StateDial)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, r.cfg.ControlURL, r.cfg.Header)
	if err != nil {
		r.setState(StateClosed)
		return &TransportError{Op: "dial", Err: err}
	}
	return r.run(ctx, conn)
}

// run drives the session given an already-dialed connection. Split out
// from Run so tests can substitute a fake wsConn without a real dial.
func (r *Runtime) run(ctx context.Context, conn wsConn) error {
	r.conn = conn
	r.queue = newOutboundQueue()
	defer conn.Close()

	r.setState(StateHandshake)

	writerDone := make(chan error, 1)
	go func() { writerDone <- runWriter(conn, r.queue) }()

	// The writer emits INITIAL immediately; the runtime does not wait for
	// a hub INIT before entering READY ("optimistic READY").
	if err := r.enqueue(ctx, initialFrame(r.cfg.InstanceID, r.cfg.Token)); err != nil {
		close(r.queue.ch)
		<-writerDone
		r.setState(StateClosed)
		return err
	}
	r.setState(StateReady)

	readerDone := make(chan error, 1)
	go func() { readerDone <- r.readLoop(ctx) }()

	var sessionErr error
	select {
	case sessionErr = <-readerDone:
	case sessionErr = <-writerDone:
		// A writer failure also ends the session; the reader goroutine
		// will observe the closed conn on its next read and exit too.
	case <-ctx.Done():
		sessionErr = ctx.Err()
	}

	r.setState(StateClosing)
	conn.Close()
	close(r.queue.ch)

	// Abandon in-flight executors rather than block shutdown on them —
	// shutdown does not wait for executor completion.
	<-writerDone
	r.setState(StateClosed)
	return sessionErr
}

func (r *Runtime) enqueue(ctx context.Context, frame outboundFrame) error {
	return r.queue.send(ctx, frame)
}

// readLoop owns the websocket receive side: it decodes one frame at a time
// and dispatches it, spawning a goroutine per assignment executor.
func (r *Runtime) readLoop(ctx context.Context) error {
	for {
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return &TransportError{Op: "read", Err: err}
		}

		var env inboundEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return &ProtocolError{Payload: string(data), Err: err}
		}

		switch env.Type {
		case typeHeartbeat:
			metrics.HeartbeatsTotal.Inc()
			if err := r.enqueue(ctx, heartbeatFrame()); err != nil {
				return err
			}

		case typeInit:
			r.provisions.adopt(env.Provisions)
			r.log.Info("handshake acknowledged", "instance_id", env.InstanceID, "provisions", len(env.Provisions))

		case typeProvide:
			r.provisions.provide(env.Provision)

		case typeUnprovide:
			r.provisions.unprovide()

		case typeError:
			r.log.Warn("hub reported error", "code", env.Code)

		case typeAssign:
			go r.dispatch(ctx, env)

		default:
			return &ProtocolError{Payload: string(data), Err: fmt.Errorf("unrecognised frame type %q", env.Type)}
		}
	}
}

// dispatch resolves an ASSIGN frame's provision to a template-id, invokes
// the registered executor, and emits the terminal event.
func (r *Runtime) dispatch(ctx context.Context, env inboundEnvelope) {
	// A registered executor is third-party code the runtime does not
	// control; a panic inside one must not take down the reader, the
	// writer, or any other in-flight assignment's goroutine.
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("executor panicked", "assignation", env.Assignation, "panic", p)
			metrics.DispatchErrorsTotal.WithLabelValues("panic").Inc()
			metrics.AssignmentsTotal.WithLabelValues("critical").Inc()
			r.emitCritical(ctx, env.Assignation, fmt.Sprintf("executor panicked: %v", p))
		}
	}()

	a := &assignment{id: env.Assignation, provision: env.Provision, args: env.Args, startedAt: time.Now()}
	r.assignments.start(a)
	metrics.AssignmentsInFlight.Inc()
	defer func() {
		r.assignments.finish(a.id)
		metrics.AssignmentsInFlight.Dec()
	}()

	res, err := r.cfg.Hub.GetProvision(ctx, env.Provision)
	if err != nil {
		metrics.DispatchErrorsTotal.WithLabelValues("provision_lookup").Inc()
		metrics.AssignmentsTotal.WithLabelValues("critical").Inc()
		r.emitCritical(ctx, env.Assignation, fmt.Sprintf("provision lookup failed: %v", err))
		return
	}

	executor := r.cfg.Registry.Lookup(res.Template.ID)
	if executor == nil {
		// Emit CRITICAL rather than silently dropping, so the hub is
		// never left waiting on a dead assignation.
		metrics.DispatchErrorsTotal.WithLabelValues("unknown_template").Inc()
		metrics.AssignmentsTotal.WithLabelValues("critical").Inc()
		r.emitCritical(ctx, env.Assignation, fmt.Sprintf("unknown template %q", res.Template.ID))
		return
	}

	argsJSON, err := json.Marshal(env.Args)
	if err != nil {
		metrics.AssignmentsTotal.WithLabelValues("critical").Inc()
		r.emitCritical(ctx, env.Assignation, fmt.Sprintf("encode arguments: %v", err))
		return
	}

	result, err := executor.Execute(ctx, string(argsJSON))
	if err != nil {
		metrics.AssignmentsTotal.WithLabelValues("critical").Inc()
		r.emitCritical(ctx, env.Assignation, err.Error())
		return
	}

	if err := r.enqueue(ctx, yieldFrame(env.Assignation, json.RawMessage(result))); err != nil {
		return
	}
	if err := r.enqueue(ctx, doneFrame(env.Assignation)); err != nil {
		return
	}
	metrics.AssignmentsTotal.WithLabelValues("done").Inc()
}

func (r *Runtime) emitCritical(ctx context.Context, assignation int64, message string) {
	_ = r.enqueue(ctx, criticalFrame(assignation, message))
}
