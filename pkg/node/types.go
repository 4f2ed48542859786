// Package node backs the SpawnChild/StopChild directives (§3, §4.10):
// it is the parent's run-tree registry of child Servers, adapted from
// the teacher's device-node registry (pkg/node originally tracked
// phone/desktop capability endpoints; here it tracks child agent
// Servers instead, but keeps the same registration/lifecycle shape).
package node

import (
	"time"
)

// ChildStatus mirrors the lifecycle the registry observes a child
// through; it does not replace runtime.Status, which the child's own
// Server owns.
type ChildStatus string

const (
	ChildStarting ChildStatus = "starting"
	ChildRunning  ChildStatus = "running"
	ChildStopped  ChildStatus = "stopped"
)

// ErrorCode enumerates the failure modes RegisterChild/Get/Stop can
// report, mirrored from the teacher's NodeErrorCode enum.
type ErrorCode string

const (
	ErrChildNotFound      ErrorCode = "CHILD_NOT_FOUND"
	ErrDuplicateChild     ErrorCode = "DUPLICATE_CHILD"
	ErrSpawnFailed        ErrorCode = "SPAWN_FAILED"
	ErrInvalidChildConfig ErrorCode = "INVALID_CHILD_CONFIG"
)

// ChildNode is one entry in a parent's run-tree: the spawned Server
// plus the bookkeeping the registry needs to stop it later.
type ChildNode struct {
	ID        string
	AgentID   string
	ParentID  string
	Config    map[string]interface{}
	Status    ChildStatus
	CreatedAt time.Time
	StoppedAt time.Time

	cancel func()
}

// Event is emitted by the Tree as children are spawned and stopped.
type Event struct {
	Type      string
	ChildID   string
	ParentID  string
	Timestamp time.Time
	Data      map[string]interface{}
}

// EventHandler handles a Tree Event.
type EventHandler func(event Event)

// Filter narrows ListChildren to a subset of the registry.
type Filter struct {
	ParentID *string
	Status   *ChildStatus
}
