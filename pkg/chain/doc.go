// Package chain sequences the instructions an agent has queued,
// threading state through each one via the workflow executor and
// accumulating the control-flow directives they return.
//
// Invariants:
// - Instructions execute strictly in order; no step starts before the
//   previous one returns.
// - A step's error stops the chain immediately; later instructions in
//   the same run are discarded, not retried by the chain itself (the
//   workflow executor already retried within the step).
// - agent.PendingInstructions is drained at the start of Run, not
//   re-read mid-run, so directives that enqueue instructions affect
//   only the *next* chain invocation.
package chain
