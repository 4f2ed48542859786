// Package workflow executes a single action under a deadline, with
// retry, cancellation, and compensation, isolating the caller from a
// runaway or crashing action.
//
// Invariants:
// - A timed-out attempt is never retried.
// - Total attempts never exceed MaxRetries+1.
// - No goroutine spawned for an attempt survives past Run's return.
//
// Usage:
//
//	exec := workflow.NewExecutor(workflow.Config{Logger: logger})
//	outcome, err := exec.Run(ctx, myAction, params, runContext, workflow.OptionsFromMap(signal.Opts()))
package workflow
