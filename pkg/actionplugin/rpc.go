package actionplugin

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"

	"github.com/jido/runtime/pkg/signal"
)

// Handshake verifies the host and a spawned action plugin speak the
// same protocol, mirrored from the teacher's plugin.Handshake with a
// distinct magic cookie so the two plugin systems can never cross-wire.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "RUNTIME_ACTION_PLUGIN",
	MagicCookieValue: "runtime-action-plugin-v1",
}

// PluginMap is the single dispensable plugin kind action plugins offer.
var PluginMap = map[string]plugin.Plugin{
	"action": &RPCPlugin{},
}

// RemotePlugin is what a spawned process implements: run a named
// action and optionally validate its params before running.
type RemotePlugin interface {
	Run(actionName string, params, runContext map[string]interface{}) (RunResult, error)
	ValidateParams(actionName string, params map[string]interface{}) error
}

// RunResult is the RPC-safe mirror of action.Outcome: errors cross the
// wire as strings since error values don't survive gob encoding. The
// only directive an out-of-process action may request is "enqueue
// these follow-up instructions" — SpawnChild/StopChild/Transition/
// RegisterOutput require host-side collaborators a sandboxed plugin
// process has no business invoking directly.
type RunResult struct {
	Result              map[string]interface{}
	ErrMessage          string
	EnqueueInstructions []signal.Instruction
}

// RPCPlugin is the implementation of plugin.Plugin for RPC, mirrored
// from the teacher's PluginRPCPlugin.
type RPCPlugin struct {
	Impl RemotePlugin
}

func (p *RPCPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &rpcServer{impl: p.Impl}, nil
}

func (p *RPCPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &rpcClient{client: c}, nil
}

type rpcServer struct {
	impl RemotePlugin
}

type runArgs struct {
	ActionName string
	Params     map[string]interface{}
	RunContext map[string]interface{}
}

func (s *rpcServer) Run(args *runArgs, resp *RunResult) error {
	result, err := s.impl.Run(args.ActionName, args.Params, args.RunContext)
	if err != nil {
		result.ErrMessage = err.Error()
	}
	*resp = result
	return nil
}

type validateArgs struct {
	ActionName string
	Params     map[string]interface{}
}

func (s *rpcServer) ValidateParams(args *validateArgs, resp *string) error {
	if err := s.impl.ValidateParams(args.ActionName, args.Params); err != nil {
		*resp = err.Error()
	}
	return nil
}

type rpcClient struct {
	client *rpc.Client
}

func (c *rpcClient) Run(actionName string, params, runContext map[string]interface{}) (RunResult, error) {
	var resp RunResult
	err := c.client.Call("Plugin.Run", &runArgs{ActionName: actionName, Params: params, RunContext: runContext}, &resp)
	return resp, err
}

func (c *rpcClient) ValidateParams(actionName string, params map[string]interface{}) error {
	var resp string
	if err := c.client.Call("Plugin.ValidateParams", &validateArgs{ActionName: actionName, Params: params}, &resp); err != nil {
		return err
	}
	if resp != "" {
		return errString(resp)
	}
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }
