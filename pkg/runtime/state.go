package runtime

import "github.com/jido/runtime/pkg/agentstate"

// AgentState is the snapshot §4.1 calls state: an agent value plus
// its position in the status state machine. It is not synchronized
// itself; all access happens on the Server's single drain goroutine.
type AgentState struct {
	Agent  *agentstate.Agent
	Status Status
}
