package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jido/runtime/internal/tracing"
	"github.com/jido/runtime/pkg/agentstate"
	"github.com/jido/runtime/pkg/emitter"
	"github.com/jido/runtime/pkg/runtimeerr"
	"github.com/jido/runtime/pkg/signal"
)

// OutputSubscriberSpec is the concrete payload a RegisterOutput
// directive carries in its Subscriber field.
type OutputSubscriberSpec struct {
	Name       string
	BufferSize int
	Handler    emitter.Handler
}

// SpawnChildFunc and StopChildFunc are host-supplied collaborators
// that interpret the SpawnChild/StopChild server directives (§4.10);
// the Server itself has no opinion on how a child agent is hosted.
type SpawnChildFunc func(childAgentID string, config map[string]interface{}) error
type StopChildFunc func(childID string) error

type envelope struct {
	sig signal.Signal
}

type dispatchResult struct {
	status  Status
	err     error
	ignored bool
	reason  map[string]interface{}
}

// Server is the Executor and state machine of §4.1: it owns one
// agent's AgentState, drains its signal queue one signal at a time,
// and routes each to the command or directive path.
type Server struct {
	agentID string
	emitter *emitter.Emitter
	cmd     agentstate.CmdFunc
	logger  zerolog.Logger

	onSpawnChild SpawnChildFunc
	onStopChild  StopChildFunc

	queueMu sync.Mutex
	queue   []envelope

	drainMu sync.Mutex
	state   AgentState

	directivesMu     sync.Mutex
	lastServerDirect []signal.Directive
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithSpawnChild registers the collaborator SpawnChild directives invoke.
func WithSpawnChild(fn SpawnChildFunc) Option {
	return func(s *Server) { s.onSpawnChild = fn }
}

// WithStopChild registers the collaborator StopChild directives invoke.
func WithStopChild(fn StopChildFunc) Option {
	return func(s *Server) { s.onStopChild = fn }
}

// WithLogger overrides the Server's zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a Server for ag, starting in status initializing.
// Callers must call Transition(StatusIdle) once setup completes
// before submitting signals; dispatch rejects everything but idle and
// running. cmd is the agent's pluggable Cmd operation (§6); see
// ChainCmd for the default chain-runner-backed implementation.
func NewServer(agentID string, ag *agentstate.Agent, em *emitter.Emitter, cmd agentstate.CmdFunc, opts ...Option) *Server {
	s := &Server{
		agentID: agentID,
		emitter: em,
		cmd:     cmd,
		logger:  zerolog.Nop(),
		state:   AgentState{Agent: ag, Status: StatusInitializing},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the agent's current status.
func (s *Server) Status() Status {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return s.state.Status
}

// QueueLength returns the number of signals currently pending.
func (s *Server) QueueLength() int {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return len(s.queue)
}

// LastServerDirectives returns the server directives yielded by the
// most recently completed ProcessSignal or Drain call, for callers
// that want to observe SpawnChild/StopChild/RegisterOutput/Transition
// without wiring every collaborator.
func (s *Server) LastServerDirectives() []signal.Directive {
	s.directivesMu.Lock()
	defer s.directivesMu.Unlock()
	return append([]signal.Directive(nil), s.lastServerDirect...)
}

// Transition performs a host-driven status change (e.g. pausing or
// resuming an agent from outside the signal pipeline). It is the only
// way to move an agent out of paused, since the drain loop refuses to
// dequeue signals while paused.
func (s *Server) Transition(to Status) error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if !legalTransition(s.state.Status, to) {
		return runtimeerr.InvalidState(string(s.state.Status))
	}
	s.state.Status = to
	return nil
}

// ProcessSignal enqueues sig and drains the queue, exactly as §4.1
// describes: the calling goroutine becomes the Executor for the
// duration of the drain. It returns once the queue (as it stood when
// draining began, plus anything appended during the same pass) is
// empty, a dispatch errors, or the agent pauses.
func (s *Server) ProcessSignal(ctx context.Context, sig signal.Signal) (Status, error) {
	s.enqueue(sig)
	return s.Drain(ctx)
}

// Drain processes whatever is currently queued without submitting a
// new signal. It is the mechanism by which a host resumes draining
// after unpausing via Transition.
func (s *Server) Drain(ctx context.Context) (Status, error) {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	if s.peekStatus() == StatusPaused {
		return s.Status(), nil
	}

	qlen := s.QueueLength()
	if qlen == 0 {
		return s.Status(), nil
	}

	ctx, span := tracing.StartSpan(ctx, "jido.runtime", "runtime.drain", attribute.Int("queue_len", qlen))
	defer span.End()

	s.emitter.Emit("queue.processing.started", map[string]interface{}{
		"agent_id":  s.agentID,
		"queue_len": qlen,
	})

	var finalErr error
	for {
		if s.peekStatus() == StatusPaused {
			break
		}

		env, ok := s.dequeue()
		if !ok {
			break
		}

		result := s.dispatchSafely(ctx, env.sig)

		if result.err != nil {
			s.emitter.Emit("queue.step.failed", map[string]interface{}{
				"agent_id": s.agentID,
				"signal":   env.sig.Type(),
				"error":    result.err.Error(),
			})
			finalErr = result.err
			span.RecordError(result.err)
			span.SetStatus(codes.Error, result.err.Error())
			break
		}

		if result.ignored {
			payload := map[string]interface{}{
				"agent_id": s.agentID,
				"signal":   env.sig.Type(),
			}
			for k, v := range result.reason {
				payload[k] = v
			}
			s.emitter.Emit("queue.step.ignored", payload)
			continue
		}

		s.emitter.Emit("queue.step.completed", map[string]interface{}{
			"agent_id": s.agentID,
			"signal":   env.sig.Type(),
		})
	}

	if finalErr != nil {
		s.emitter.Emit("queue.processing.failed", map[string]interface{}{
			"agent_id": s.agentID,
			"error":    finalErr.Error(),
		})
	} else {
		s.emitter.Emit("queue.processing.completed", map[string]interface{}{
			"agent_id": s.agentID,
		})
	}

	return s.Status(), finalErr
}

func (s *Server) peekStatus() Status {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return s.state.Status
}

func (s *Server) enqueue(sig signal.Signal) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.queue = append(s.queue, envelope{sig: sig})
}

func (s *Server) dequeue() (envelope, bool) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if len(s.queue) == 0 {
		return envelope{}, false
	}
	env := s.queue[0]
	s.queue = s.queue[1:]
	return env, true
}

// dispatchSafely recovers from any panic raised by user code reached
// through Cmd, converting it to a signal_execution_failed error so a
// single misbehaving action can never take down the drain loop.
func (s *Server) dispatchSafely(ctx context.Context, sig signal.Signal) (result dispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			result = dispatchResult{status: s.Status(), err: runtimeerr.SignalExecutionFailed(fmt.Errorf("%v", r))}
		}
	}()
	return s.dispatch(ctx, sig)
}

// dispatch routes sig by kind and gates it through the state machine
// (§4.1's table), always returning status to idle on any exit path
// from a dispatch that entered running.
func (s *Server) dispatch(ctx context.Context, sig signal.Signal) dispatchResult {
	switch sig.Kind() {
	case signal.KindEvent, signal.KindUnknown:
		return dispatchResult{
			status:  s.Status(),
			ignored: true,
			reason: map[string]interface{}{
				"reason": "unknown_signal_type",
				"type":   sig.Type(),
			},
		}
	}

	status := s.Status()
	switch status {
	case StatusIdle:
		if err := s.Transition(StatusRunning); err != nil {
			return dispatchResult{status: s.Status(), err: runtimeerr.InternalServerError(err)}
		}
	case StatusRunning:
		// already running: dispatch re-entrantly without a transition
	default:
		return dispatchResult{status: status, err: runtimeerr.InvalidState(string(status))}
	}

	defer func() {
		_ = s.Transition(StatusIdle)
	}()

	var err error
	switch sig.Kind() {
	case signal.KindCommand:
		err = s.runCommandPath(ctx, sig)
	case signal.KindDirective:
		err = s.runDirectivePath(ctx, sig)
	}

	return dispatchResult{status: StatusIdle, err: err}
}

func (s *Server) ag() *agentstate.Agent {
	return s.state.Agent
}

func (s *Server) applyServerDirectives(directives []signal.Directive) {
	if len(directives) == 0 {
		return
	}

	s.directivesMu.Lock()
	s.lastServerDirect = append([]signal.Directive(nil), directives...)
	s.directivesMu.Unlock()

	for _, d := range directives {
		switch d.Type {
		case signal.DirectiveTransition:
			if err := s.Transition(Status(d.ToStatus)); err != nil {
				s.logger.Warn().Err(err).Str("to_status", d.ToStatus).Msg("transition directive rejected")
			}
		case signal.DirectiveSpawnChild:
			if s.onSpawnChild != nil {
				if err := s.onSpawnChild(d.ChildAgentID, d.ChildConfig); err != nil {
					s.logger.Warn().Err(err).Str("child", d.ChildAgentID).Msg("spawn_child failed")
				}
			}
		case signal.DirectiveStopChild:
			if s.onStopChild != nil {
				if err := s.onStopChild(d.ChildID); err != nil {
					s.logger.Warn().Err(err).Str("child", d.ChildID).Msg("stop_child failed")
				}
			}
		case signal.DirectiveRegisterOutput:
			if spec, ok := d.Subscriber.(OutputSubscriberSpec); ok {
				s.emitter.Subscribe(spec.Name, spec.BufferSize, spec.Handler)
			}
		}
	}
}
