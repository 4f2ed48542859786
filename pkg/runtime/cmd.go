package runtime

import (
	"context"

	"github.com/jido/runtime/pkg/agentstate"
	"github.com/jido/runtime/pkg/chain"
	"github.com/jido/runtime/pkg/signal"
)

// ChainCmd adapts a chain.Runner into the agentstate.CmdFunc plug-in
// surface (§6): a command-path call enqueues its instructions onto
// the agent and runs the chain; a directive-path call passes the
// directive straight back through as a server directive, since the
// default agent has no directive-specific behavior of its own.
func ChainCmd(runner *chain.Runner) agentstate.CmdFunc {
	return func(ctx context.Context, ag *agentstate.Agent, input agentstate.CmdInput, data, opts map[string]interface{}) agentstate.CmdResult {
		if input.IsDirective() {
			return agentstate.CmdResult{Directives: []signal.Directive{*input.Directive}}
		}

		ag.EnqueueInstructions(input.Instructions)
		directives, err := runner.Run(ctx, ag, opts)
		return agentstate.CmdResult{Directives: directives, Err: err}
	}
}
