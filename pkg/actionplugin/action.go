package actionplugin

import (
	"context"
	"fmt"

	"github.com/jido/runtime/pkg/action"
	"github.com/jido/runtime/pkg/signal"
)

// remoteAction adapts one action name on a RemotePlugin to
// action.Action (and action.ParamValidator), so the workflow Executor
// never knows whether an Action runs in-process or over RPC.
type remoteAction struct {
	name   string
	remote RemotePlugin
}

func newRemoteAction(name string, remote RemotePlugin) *remoteAction {
	return &remoteAction{name: name, remote: remote}
}

func (r *remoteAction) Run(ctx context.Context, params, runContext map[string]interface{}) action.Outcome {
	result, err := r.remote.Run(r.name, params, runContext)
	if err != nil {
		return action.Err(fmt.Errorf("action plugin call failed for %q: %w", r.name, err))
	}
	return decodeOutcome(result)
}

func (r *remoteAction) ValidateParams(params map[string]interface{}) error {
	return r.remote.ValidateParams(r.name, params)
}

func decodeOutcome(result RunResult) action.Outcome {
	var directive *signal.Directive
	if len(result.EnqueueInstructions) > 0 {
		directive = &signal.Directive{
			Type:         signal.DirectiveEnqueueInstructions,
			Instructions: result.EnqueueInstructions,
		}
	}

	if result.ErrMessage != "" {
		err := fmt.Errorf("%s", result.ErrMessage)
		if directive != nil {
			return action.ErrDirective(err, *directive)
		}
		return action.Err(err)
	}

	if directive != nil {
		return action.OkDirective(result.Result, *directive)
	}
	return action.Ok(result.Result)
}
