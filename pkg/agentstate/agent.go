// Package agentstate defines the user-defined agent value embedded in
// a Server's AgentState: its state map, last result, and the queue of
// instructions it has produced for the chain runner to drain.
package agentstate

import (
	"context"

	"github.com/jido/runtime/pkg/signal"
)

// Agent is the value a concrete agent implementation mutates. The
// runtime never interprets State or Result; it only drains
// PendingInstructions into fresh command signals (§4.4) and merges
// chain results back into State (§4.3).
type Agent struct {
	ID                  string
	State               map[string]interface{}
	Result              map[string]interface{}
	PendingInstructions []signal.Instruction
}

// New creates an Agent with an empty state map.
func New(id string) *Agent {
	return &Agent{ID: id, State: map[string]interface{}{}}
}

// EnqueueInstructions appends instructions to the agent's pending
// queue, implementing the EnqueueInstructions agent directive (§4.3).
func (a *Agent) EnqueueInstructions(instructions []signal.Instruction) {
	a.PendingInstructions = append(a.PendingInstructions, instructions...)
}

// DrainPendingInstructions removes and returns all pending
// instructions, clearing the agent's queue. The chain runner calls
// this at the start of a run; the command path calls this after a
// successful Cmd invocation to materialize fresh command signals.
func (a *Agent) DrainPendingInstructions() []signal.Instruction {
	pending := a.PendingInstructions
	a.PendingInstructions = nil
	return pending
}

// Clone returns a deep-enough copy of the agent for use as the
// starting point of a dispatch: State and Result are copied so a
// failed dispatch can be rolled back without mutating the original.
func (a *Agent) Clone() *Agent {
	clone := &Agent{
		ID:     a.ID,
		State:  make(map[string]interface{}, len(a.State)),
		Result: make(map[string]interface{}, len(a.Result)),
	}
	for k, v := range a.State {
		clone.State[k] = v
	}
	for k, v := range a.Result {
		clone.Result[k] = v
	}
	clone.PendingInstructions = append([]signal.Instruction(nil), a.PendingInstructions...)
	return clone
}

// CmdInput is the argument an Agent's Cmd operation receives: either
// an ordered instruction list (command path) or a single directive
// (directive path), never both.
type CmdInput struct {
	Instructions []signal.Instruction
	Directive    *signal.Directive
}

// IsDirective reports whether this input came from the directive path.
func (c CmdInput) IsDirective() bool {
	return c.Directive != nil
}

// CmdResult is what an Agent's Cmd operation returns: any directives
// it wants applied or returned to the server, and an error if the
// command failed outright.
type CmdResult struct {
	Directives []signal.Directive
	Err        error
}

// CmdFunc is the agent plug-in surface's required operation (§6).
type CmdFunc func(ctx context.Context, ag *Agent, input CmdInput, data, opts map[string]interface{}) CmdResult
