package runtime

import (
	"context"

	"github.com/jido/runtime/pkg/agentstate"
	"github.com/jido/runtime/pkg/runtimeerr"
	"github.com/jido/runtime/pkg/signal"
)

// runDirectivePath implements §4.5. Unlike the command path, results
// are never materialized into fresh command signals; agent directives
// apply in-place and server directives are interpreted immediately by
// applyServerDirectives.
func (s *Server) runDirectivePath(ctx context.Context, sig signal.Signal) error {
	directive, ok := sig.Data()["directive"].(signal.Directive)
	if !ok {
		err := runtimeerr.InvalidDirectiveFormat("directive-path signal missing a directive in data")
		s.emitter.Emit("cmd.failed", map[string]interface{}{
			"agent_id": s.agentID,
			"signal":   sig.Type(),
			"error":    err.Error(),
		})
		return err
	}

	ag := s.ag()
	result := s.cmd(ctx, ag, agentstate.CmdInput{Directive: &directive}, sig.Data(), sig.Opts())
	if result.Err != nil {
		s.emitter.Emit("cmd.failed", map[string]interface{}{
			"agent_id": s.agentID,
			"signal":   sig.Type(),
			"error":    result.Err.Error(),
		})
		return result.Err
	}

	agentDirectives, serverDirectives, err := signal.Partition(result.Directives)
	if err != nil {
		s.emitter.Emit("cmd.failed", map[string]interface{}{
			"agent_id": s.agentID,
			"signal":   sig.Type(),
			"error":    err.Error(),
		})
		return err
	}

	for _, d := range agentDirectives {
		if d.Type == signal.DirectiveEnqueueInstructions {
			ag.EnqueueInstructions(d.Instructions)
		}
	}

	s.applyServerDirectives(serverDirectives)

	s.emitter.Emit("cmd.success", map[string]interface{}{
		"agent_id": s.agentID,
		"signal":   sig.Type(),
	})
	return nil
}
