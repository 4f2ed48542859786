package workflow

import (
	"context"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/jido/runtime/pkg/action"
	"github.com/jido/runtime/pkg/runtimeerr"
)

// Handle identifies an in-flight asynchronous workflow invocation.
type Handle struct {
	ID string

	cancel context.CancelFunc
	done   chan asyncResult
	once   sync.Once
}

type asyncResult struct {
	outcome action.Outcome
	err     error
}

// RunAsync starts Run in the background and returns a Handle the
// caller can Await or Cancel.
func (e *Executor) RunAsync(ctx context.Context, actionID string, act action.Action, rawParams, rawContext interface{}, opts Options) *Handle {
	workerCtx, cancel := context.WithCancel(ctx)

	id, err := gonanoid.New()
	if err != nil {
		id = actionID
	}

	h := &Handle{ID: id, cancel: cancel, done: make(chan asyncResult, 1)}

	go func() {
		outcome, runErr := e.Run(workerCtx, actionID, act, rawParams, rawContext, opts)
		h.once.Do(func() {
			h.done <- asyncResult{outcome: outcome, err: runErr}
			close(h.done)
		})
	}()

	return h
}

// Await waits for handle to complete or for timeout to elapse. On
// timeout it forcibly terminates the worker via its cancel function.
func (e *Executor) Await(h *Handle, timeout time.Duration) (action.Outcome, error) {
	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case r := <-h.done:
		return r.outcome, r.err
	case <-timeoutCh:
		h.cancel()
		return action.Outcome{}, runtimeerr.Timeout(timeout.Milliseconds())
	}
}

// Cancel sends a graceful shutdown signal to the worker behind handle
// and returns ok even if the worker already finished.
func (e *Executor) Cancel(h *Handle) error {
	h.cancel()
	return nil
}
