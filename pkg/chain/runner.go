package chain

import (
	"context"
	"fmt"

	"github.com/jido/runtime/pkg/action"
	"github.com/jido/runtime/pkg/agentstate"
	"github.com/jido/runtime/pkg/runtimeerr"
	"github.com/jido/runtime/pkg/signal"
	"github.com/jido/runtime/pkg/workflow"
)

// ActionResolver locates an Action by the opaque identifier carried
// on an Instruction.
type ActionResolver func(actionID string) (action.Action, bool)

// Runner is the Chain Runner of §4.3: it drains an agent's pending
// instructions and runs each one through the Workflow Executor.
type Runner struct {
	resolve  ActionResolver
	executor *workflow.Executor
}

// NewRunner creates a Chain Runner backed by resolve (action lookup)
// and executor (the workflow executor each instruction runs through).
func NewRunner(resolve ActionResolver, executor *workflow.Executor) *Runner {
	return &Runner{resolve: resolve, executor: executor}
}

// Run drains ag.PendingInstructions and executes each instruction in
// order, threading state through them. It returns the server
// directives accumulated along the way (agent directives are applied
// in-place to ag before Run returns).
func (r *Runner) Run(ctx context.Context, ag *agentstate.Agent, opts map[string]interface{}) ([]signal.Directive, error) {
	instructions := ag.DrainPendingInstructions()
	applyState := signal.BoolOpt(opts, "apply_state", true)

	var accumulated []signal.Directive

	for _, instr := range instructions {
		act, ok := r.resolve(instr.Action)
		if !ok {
			return nil, runtimeerr.InvalidAction(instr.Action)
		}

		mergedParams := signal.Merge(ag.State, instr.Params)

		runContext := signal.Merge(instr.Context, map[string]interface{}{"state": ag.State})

		workflowOpts := workflow.OptionsFromMap(instr.Opts)
		outcome, err := r.executor.Run(ctx, instr.Action, act, mergedParams, runContext, workflowOpts)
		if err != nil {
			return nil, err
		}

		if outcome.HasDirective() {
			accumulated = append(accumulated, *outcome.Directive)
		}

		if outcome.IsError() {
			return nil, fmt.Errorf("instruction %q failed: %w", instr.Action, outcome.Err)
		}

		// Per §4.3 step 3/4, the merged state∪resultMap is the result
		// the agent observes, whether or not it also becomes the
		// persisted State: apply_state only gates the latter.
		merged := signal.Merge(ag.State, outcome.Result)
		if applyState {
			ag.State = merged
		}
		ag.Result = merged
	}

	agentDirectives, serverDirectives, err := signal.Partition(accumulated)
	if err != nil {
		return nil, err
	}

	for _, d := range agentDirectives {
		if d.Type == signal.DirectiveEnqueueInstructions {
			ag.EnqueueInstructions(d.Instructions)
		}
	}

	return serverDirectives, nil
}
