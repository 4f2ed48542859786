package runtime

import (
	"context"

	"github.com/jido/runtime/pkg/agentstate"
	"github.com/jido/runtime/pkg/signal"
)

// runCommandPath implements §4.4: it runs the agent's Cmd over sig's
// instructions and, when Cmd leaves fresh pending instructions on the
// agent, materializes each one as a new cmd.* signal appended to the
// tail of the queue rather than running it inline.
func (s *Server) runCommandPath(ctx context.Context, sig signal.Signal) error {
	ag := s.ag()

	result := s.cmd(ctx, ag, agentstate.CmdInput{Instructions: sig.Instructions()}, sig.Data(), sig.Opts())
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

	pending := ag.DrainPendingInstructions()
	if len(pending) > 0 {
		s.emitter.Emit("cmd.success.pending", map[string]interface{}{
			"agent_id": s.agentID,
			"signal":   sig.Type(),
			"count":    len(pending),
		})
		for _, instr := range pending {
			fresh := signal.New(s.agentID, instr.Action).WithInstructions([]signal.Instruction{instr}).Build()
			s.enqueue(fresh)
		}
		return nil
	}

	s.emitter.Emit("cmd.success", map[string]interface{}{
		"agent_id": s.agentID,
		"signal":   sig.Type(),
	})
	return nil
}
