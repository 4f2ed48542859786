// Package agentsnapshot is the optional AgentState persistence layer
// §4.10 assigns to pkg/session: it snapshots an agentstate.Agent's
// State/Result/PendingInstructions to a JSONL file keyed by agent ID,
// adapted from the teacher's pkg/session conversation log. A host that
// wants a restarted process to resume an agent where it left off
// writes a Snapshot after each successful Drain and restores the most
// recent one on startup; the runtime itself never touches disk.
package agentsnapshot
