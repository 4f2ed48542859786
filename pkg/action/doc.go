// Package action defines the pluggable unit of work the Workflow
// Executor runs, and the registry that maps opaque action identifiers
// to concrete implementations.
//
// Invariants:
// - Actions are located by identifier, never by dynamic code lookup;
//   signals carry identifiers, not code (see DESIGN.md).
// - Outcome is an exhaustive sum type: callers must handle all four
//   variants rather than branching on optional fields.
package action
