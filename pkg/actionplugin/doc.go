// Package actionplugin loads Action implementations out-of-process
// (§4.7), adapted from the teacher's hashicorp/go-plugin RPC loader in
// pkg/plugin. A manifest declares one or more action names an
// executable provides; Load spawns that executable, performs the
// go-plugin handshake, and returns an action.Action per declared name
// whose Run/ValidateParams calls are RPC round-trips to the child
// process. Unlike the teacher's Plugin (which also registers tools,
// hooks, channels, and gateway methods against a live host API), an
// action plugin's only surface is Run/ValidateParams — the rest of
// the teacher's PluginAPI has no analog in the Signal/Directive/Action
// model.
package actionplugin
