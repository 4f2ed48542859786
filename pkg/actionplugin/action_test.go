package actionplugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jido/runtime/pkg/signal"
)

type fakeRemote struct {
	result    RunResult
	runErr    error
	validateErr error
	gotAction string
	gotParams map[string]interface{}
}

func (f *fakeRemote) Run(actionName string, params, runContext map[string]interface{}) (RunResult, error) {
	f.gotAction = actionName
	f.gotParams = params
	return f.result, f.runErr
}

func (f *fakeRemote) ValidateParams(actionName string, params map[string]interface{}) error {
	return f.validateErr
}

func TestRemoteAction_OkResultRoundTrips(t *testing.T) {
	remote := &fakeRemote{result: RunResult{Result: map[string]interface{}{"ok": true}}}
	a := newRemoteAction("notify.send", remote)

	outcome := a.Run(context.Background(), map[string]interface{}{"to": "x"}, nil)
	assert.False(t, outcome.IsError())
	assert.Equal(t, true, outcome.Result["ok"])
	assert.Equal(t, "notify.send", remote.gotAction)
}

func TestRemoteAction_ErrorMessageBecomesOutcomeErr(t *testing.T) {
	remote := &fakeRemote{result: RunResult{ErrMessage: "boom"}}
	a := newRemoteAction("notify.send", remote)

	outcome := a.Run(context.Background(), nil, nil)
	require.True(t, outcome.IsError())
	assert.EqualError(t, outcome.Err, "boom")
}

func TestRemoteAction_EnqueueInstructionsBecomesDirective(t *testing.T) {
	remote := &fakeRemote{result: RunResult{
		Result:              map[string]interface{}{"ok": true},
		EnqueueInstructions: []signal.Instruction{{Action: "followup"}},
	}}
	a := newRemoteAction("notify.send", remote)

	outcome := a.Run(context.Background(), nil, nil)
	require.True(t, outcome.HasDirective())
	assert.Equal(t, signal.DirectiveEnqueueInstructions, outcome.Directive.Type)
	assert.Len(t, outcome.Directive.Instructions, 1)
}

func TestRemoteAction_TransportFailureBecomesErr(t *testing.T) {
	remote := &fakeRemote{runErr: assertionError("rpc: connection lost")}
	a := newRemoteAction("notify.send", remote)

	outcome := a.Run(context.Background(), nil, nil)
	assert.True(t, outcome.IsError())
}

func TestRemoteAction_ValidateParamsDelegates(t *testing.T) {
	remote := &fakeRemote{validateErr: assertionError("missing field")}
	a := newRemoteAction("notify.send", remote)

	err := a.ValidateParams(map[string]interface{}{})
	assert.EqualError(t, err, "missing field")
}

type assertionError string

func (e assertionError) Error() string { return string(e) }
