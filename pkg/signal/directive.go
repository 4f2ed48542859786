package signal

import "github.com/jido/runtime/pkg/runtimeerr"

// DirectiveType tags the variant of a Directive.
type DirectiveType string

const (
	DirectiveEnqueueInstructions DirectiveType = "enqueue_instructions"
	DirectiveTransition          DirectiveType = "transition"
	DirectiveSpawnChild          DirectiveType = "spawn_child"
	DirectiveStopChild           DirectiveType = "stop_child"
	DirectiveRegisterOutput      DirectiveType = "register_output"
)

// Directive is the structured control value returned by Cmd or Run.
// Only the kinds above are interpreted by the runtime; anything else
// fails validation.
type Directive struct {
	Type DirectiveType

	// EnqueueInstructions
	Instructions []Instruction

	// Transition
	ToStatus string

	// SpawnChild
	ChildAgentID string
	ChildConfig  map[string]interface{}

	// StopChild
	ChildID string

	// RegisterOutput
	Subscriber interface{}
}

// IsAgentDirective reports whether this directive is applied in-place
// to the agent (as opposed to being returned to the server's owner).
func (d Directive) IsAgentDirective() bool {
	return d.Type == DirectiveEnqueueInstructions
}

// IsServerDirective reports whether this directive is returned to the
// caller for the server's owner to interpret.
func (d Directive) IsServerDirective() bool {
	switch d.Type {
	case DirectiveTransition, DirectiveSpawnChild, DirectiveStopChild, DirectiveRegisterOutput:
		return true
	default:
		return false
	}
}

// Validate rejects directives of an unrecognized type or missing the
// fields their type requires.
func (d Directive) Validate() error {
	switch d.Type {
	case DirectiveEnqueueInstructions:
		return nil
	case DirectiveTransition:
		if d.ToStatus == "" {
			return runtimeerr.ValidationError("Invalid directive", map[string]interface{}{
				"reason": "transition directive missing to_status",
			})
		}
		return nil
	case DirectiveSpawnChild:
		if d.ChildAgentID == "" {
			return runtimeerr.ValidationError("Invalid directive", map[string]interface{}{
				"reason": "spawn_child directive missing child_agent_id",
			})
		}
		return nil
	case DirectiveStopChild:
		if d.ChildID == "" {
			return runtimeerr.ValidationError("Invalid directive", map[string]interface{}{
				"reason": "stop_child directive missing child_id",
			})
		}
		return nil
	case DirectiveRegisterOutput:
		if d.Subscriber == nil {
			return runtimeerr.ValidationError("Invalid directive", map[string]interface{}{
				"reason": "register_output directive missing subscriber",
			})
		}
		return nil
	default:
		return runtimeerr.ValidationError("Invalid directive", map[string]interface{}{
			"reason": "unknown directive type",
			"type":   string(d.Type),
		})
	}
}

// Partition splits directives into agent directives (applied in-place)
// and server directives (returned to the caller), validating each.
func Partition(directives []Directive) (agentDirectives, serverDirectives []Directive, err error) {
	for _, d := range directives {
		if verr := d.Validate(); verr != nil {
			return nil, nil, verr
		}
		if d.IsAgentDirective() {
			agentDirectives = append(agentDirectives, d)
		} else {
			serverDirectives = append(serverDirectives, d)
		}
	}
	return agentDirectives, serverDirectives, nil
}
