package chain

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jido/runtime/pkg/action"
	"github.com/jido/runtime/pkg/agentstate"
	"github.com/jido/runtime/pkg/signal"
	"github.com/jido/runtime/pkg/workflow"
)

type echoAction struct{}

func (echoAction) Run(ctx context.Context, params, runContext map[string]interface{}) action.Outcome {
	return action.Ok(map[string]interface{}{"echoed": params["value"]})
}

func newTestRunner(resolve ActionResolver) *Runner {
	executor := workflow.NewExecutor(workflow.Config{Logger: zerolog.Nop()})
	return NewRunner(resolve, executor)
}

func TestCmdFuncRunsEnqueuedInstructionsOnCommandPath(t *testing.T) {
	runner := newTestRunner(func(id string) (action.Action, bool) {
		if id == "echo" {
			return echoAction{}, true
		}
		return nil, false
	})
	cmd := runner.CmdFunc()

	ag := agentstate.New("agent-1")
	input := agentstate.CmdInput{
		Instructions: []signal.Instruction{{Action: "echo", Params: map[string]interface{}{"value": "hi"}}},
	}

	result := cmd(context.Background(), ag, input, nil, nil)

	require.NoError(t, result.Err)
	assert.Equal(t, "hi", ag.Result["echoed"])
}

func TestCmdFuncPassesThroughOnDirectivePath(t *testing.T) {
	runner := newTestRunner(func(id string) (action.Action, bool) { return nil, false })
	cmd := runner.CmdFunc()

	ag := agentstate.New("agent-1")
	directive := signal.Directive{Type: signal.DirectiveTransition, ToStatus: "idle"}
	input := agentstate.CmdInput{Directive: &directive}

	result := cmd(context.Background(), ag, input, nil, nil)

	require.NoError(t, result.Err)
	require.Len(t, result.Directives, 1)
	assert.Equal(t, directive, result.Directives[0])
}

func TestCmdFuncReturnsErrorFromUnresolvedAction(t *testing.T) {
	runner := newTestRunner(func(id string) (action.Action, bool) { return nil, false })
	cmd := runner.CmdFunc()

	ag := agentstate.New("agent-1")
	input := agentstate.CmdInput{
		Instructions: []signal.Instruction{{Action: "missing"}},
	}

	result := cmd(context.Background(), ag, input, nil, nil)

	assert.Error(t, result.Err)
}
