package runtime

// Status is an agent's position in the state machine of §4.1.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusIdle         Status = "idle"
	StatusRunning      Status = "running"
	StatusPaused       Status = "paused"
	StatusStopped      Status = "stopped"
)

// legalTransition reports whether moving from `from` to `to` is
// allowed. Any status may transition to stopped; everything else is
// the fixed initializing -> idle <-> running, idle <-> paused graph.
func legalTransition(from, to Status) bool {
	if to == StatusStopped {
		return true
	}
	switch from {
	case StatusInitializing:
		return to == StatusIdle
	case StatusIdle:
		return to == StatusRunning || to == StatusPaused
	case StatusRunning:
		return to == StatusIdle
	case StatusPaused:
		return to == StatusIdle
	default:
		return false
	}
}
