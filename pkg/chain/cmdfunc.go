package chain

import (
	"context"

	"github.com/jido/runtime/pkg/agentstate"
	"github.com/jido/runtime/pkg/signal"
)

// CmdFunc adapts r into the agentstate.CmdFunc shape runtime.NewServer
// requires. On the command path, input.Instructions are enqueued onto
// ag before draining, so a single CmdFunc call both receives and runs
// them through the workflow executor. On the directive path, the
// chain runner has no notion of interpreting an arbitrary incoming
// directive, so it is forwarded unchanged as the sole output
// directive, leaving routing (agent-directive vs server-directive) to
// the caller's signal.Partition.
func (r *Runner) CmdFunc() agentstate.CmdFunc {
	return func(ctx context.Context, ag *agentstate.Agent, input agentstate.CmdInput, data, opts map[string]interface{}) agentstate.CmdResult {
		if input.IsDirective() {
			return agentstate.CmdResult{Directives: []signal.Directive{*input.Directive}}
		}

		ag.EnqueueInstructions(input.Instructions)

		directives, err := r.Run(ctx, ag, opts)
		if err != nil {
			return agentstate.CmdResult{Err: err}
		}

		return agentstate.CmdResult{Directives: directives}
	}
}
