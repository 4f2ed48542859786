package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/jido/runtime/internal/tracing"
	"github.com/jido/runtime/pkg/action"
	"github.com/jido/runtime/pkg/runtimeerr"
	"github.com/jido/runtime/pkg/signal"
)

// TelemetryEvent reports a single workflow attempt lifecycle point.
type TelemetryEvent struct {
	Type     string // "start", "complete", "error"
	Action   string
	Params   map[string]interface{}
	Context  map[string]interface{}
	Duration time.Duration
	Err      error
}

// TelemetryFunc receives telemetry events. It MUST NOT block; the
// executor calls it synchronously between attempts.
type TelemetryFunc func(TelemetryEvent)

// Config configures a workflow Executor.
type Config struct {
	Logger    zerolog.Logger
	OnTelemetry TelemetryFunc
}

// Executor runs a single action under a deadline, with retry and
// compensation. It never shares state across Run calls besides its
// logger and telemetry sink, so one Executor may serve many agents.
type Executor struct {
	logger      zerolog.Logger
	onTelemetry TelemetryFunc
}

// NewExecutor creates a Workflow Executor.
func NewExecutor(cfg Config) *Executor {
	return &Executor{logger: cfg.Logger, onTelemetry: cfg.OnTelemetry}
}

// Run executes actionID's bound Action with the given params/context
// under opts, applying §4.2's pipeline, retry, and compensation rules.
func (e *Executor) Run(ctx context.Context, actionID string, act action.Action, rawParams, rawContext interface{}, opts Options) (action.Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "jido.workflow", "workflow.run",
		attribute.String("action", actionID))
	defer span.End()

	if act == nil {
		err := runtimeerr.InvalidAction(actionID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return action.Outcome{}, err
	}

	params, err := signal.NormalizeMapping(rawParams)
	if err != nil {
		return action.Outcome{}, runtimeerr.ValidationError(
			fmt.Sprintf("invalid params: %v", err),
			map[string]interface{}{"action": actionID})
	}

	runContext, err := signal.NormalizeMapping(rawContext)
	if err != nil {
		return action.Outcome{}, runtimeerr.ValidationError(
			fmt.Sprintf("invalid context: %v", err),
			map[string]interface{}{"action": actionID})
	}

	if verr := validateParams(act, params, opts.StrictValidation); verr != nil {
		return action.Outcome{}, runtimeerr.ValidationError(
			fmt.Sprintf("params validation failed: %v", verr),
			map[string]interface{}{"action": actionID})
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		e.emitTelemetry(opts, TelemetryEvent{Type: "start", Action: actionID, Params: params, Context: runContext})

		start := time.Now()
		outcome, attemptErr := e.runAttempt(ctx, act, params, runContext, opts.Timeout)
		duration := time.Since(start)

		if attemptErr == nil && !outcome.IsError() {
			e.emitTelemetry(opts, TelemetryEvent{Type: "complete", Action: actionID, Duration: duration})
			return outcome, nil
		}

		if attemptErr == nil {
			attemptErr = outcome.Err
		}
		e.emitTelemetry(opts, TelemetryEvent{Type: "error", Action: actionID, Duration: duration, Err: attemptErr})
		lastErr = attemptErr

		if rtErr, ok := attemptErr.(*runtimeerr.Error); ok && rtErr.Kind == runtimeerr.KindTimeout {
			break // timeouts are never retried
		}

		if attempt >= opts.MaxRetries {
			break
		}

		delay := backoffFor(opts.Backoff, attempt)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			lastErr = ctx.Err()
			attempt = opts.MaxRetries // stop retrying
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())

	return e.compensate(ctx, act, params, runContext, opts, lastErr)
}

// validateParams runs an action's optional params validation, preferring
// action.StrictAwareValidator (and the per-signal `strict_validation`
// opt threaded in as strictOverride) over the plain action.ParamValidator
// path when the action implements both and a signal actually set the opt.
func validateParams(act action.Action, params map[string]interface{}, strictOverride *bool) error {
	if sv, ok := act.(action.StrictAwareValidator); ok && strictOverride != nil {
		return sv.ValidateParamsStrict(params, *strictOverride)
	}
	if validator, ok := act.(action.ParamValidator); ok {
		return validator.ValidateParams(params)
	}
	return nil
}

// runAttempt runs one attempt of the action in an isolated task group
// (§4.2) bounded by opts.Timeout: an errgroup.Group rooted in its own
// cancelable context, so the worker and any child tasks an action
// spawns under it share one cancellation signal. On timeout the group's
// context is cancelled; the caller never blocks waiting for it to
// actually exit, since a misbehaving action's goroutine may ignore
// cancellation, but a detached reaper still drains the group so it is
// cleaned up once the worker does return.
func (e *Executor) runAttempt(parent context.Context, act action.Action, params, runContext map[string]interface{}, timeout time.Duration) (outcome action.Outcome, err error) {
	attemptCtx := parent
	var cancel context.CancelFunc
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(parent, timeout)
	} else {
		attemptCtx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	group, groupCtx := errgroup.WithContext(attemptCtx)

	type result struct {
		outcome action.Outcome
		panic   interface{}
	}
	done := make(chan result, 1)

	group.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				done <- result{panic: r}
			}
		}()
		done <- result{outcome: act.Run(groupCtx, params, runContext)}
		return nil
	})
	go func() {
		_ = group.Wait()
	}()

	select {
	case r := <-done:
		if r.panic != nil {
			return action.Outcome{}, runtimeerr.ExecutionError("panic", fmt.Sprintf("%v", r.panic))
		}
		return r.outcome, nil
	case <-groupCtx.Done():
		if timeout > 0 && parent.Err() == nil {
			return action.Outcome{}, runtimeerr.Timeout(timeout.Milliseconds())
		}
		return action.Outcome{}, groupCtx.Err()
	}
}

// compensate invokes the action's OnError under its own timeout, if
// the action opts into compensation via action.Compensator.
func (e *Executor) compensate(ctx context.Context, act action.Action, params, runContext map[string]interface{}, opts Options, originalErr error) (action.Outcome, error) {
	comp, ok := act.(action.Compensator)
	if !ok || !comp.Metadata().Compensation.Enabled {
		return action.Outcome{}, originalErr
	}

	timeout := time.Duration(comp.Metadata().Compensation.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = opts.Timeout
	}
	if timeout <= 0 {
		timeout = 5000 * time.Millisecond
	}

	compCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value map[string]interface{}
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := comp.OnError(compCtx, params, originalErr, runContext)
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return action.Outcome{}, runtimeerr.CompensationError(originalErr, false, map[string]interface{}{
				"compensation_error": r.err.Error(),
			})
		}
		return action.Outcome{}, runtimeerr.CompensationError(originalErr, true, map[string]interface{}{
			"compensation_result": r.value,
		})
	case <-compCtx.Done():
		return action.Outcome{}, runtimeerr.CompensationError(originalErr, false, map[string]interface{}{
			"compensation_error": fmt.Sprintf("Compensation timed out after %dms", timeout.Milliseconds()),
		})
	}
}

func (e *Executor) emitTelemetry(opts Options, event TelemetryEvent) {
	if opts.Telemetry == TelemetrySilent || e.onTelemetry == nil {
		return
	}
	if opts.Telemetry == TelemetryMinimal && event.Type == "start" {
		return
	}
	e.onTelemetry(event)
}
