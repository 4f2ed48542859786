package node

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Registry tracks every child Server a run-tree has spawned, keyed by
// child ID. Adapted from the teacher's NodeRegistry: a mutex-guarded
// map with copy-on-read accessors so callers can't mutate entries
// behind the registry's back.
type Registry struct {
	children map[string]*ChildNode
	mu       sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{children: make(map[string]*ChildNode)}
}

// Register adds a new ChildNode. It is an error to register an ID
// that is already present and not yet stopped.
func (r *Registry) Register(child *ChildNode) error {
	if child.ID == "" {
		return fmt.Errorf("child ID is required")
	}
	if child.AgentID == "" {
		return fmt.Errorf("child agent ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.children[child.ID]; exists && existing.Status != ChildStopped {
		return fmt.Errorf("%s: child already registered and running", ErrDuplicateChild)
	}

	child.CreatedAt = time.Now()
	child.Status = ChildStarting
	r.children[child.ID] = child

	log.Info().
		Str("childId", child.ID).
		Str("agentId", child.AgentID).
		Str("parentId", child.ParentID).
		Msg("child registered")

	return nil
}

// MarkRunning transitions a registered child to ChildRunning.
func (r *Registry) MarkRunning(childID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	child, exists := r.children[childID]
	if !exists {
		return fmt.Errorf("%s: %s", ErrChildNotFound, childID)
	}
	child.Status = ChildRunning
	return nil
}

// MarkStopped transitions a registered child to ChildStopped and
// records the stop time, invoking its cancel func if one was set.
func (r *Registry) MarkStopped(childID string) (*ChildNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	child, exists := r.children[childID]
	if !exists {
		return nil, fmt.Errorf("%s: %s", ErrChildNotFound, childID)
	}
	if child.cancel != nil {
		child.cancel()
	}
	child.Status = ChildStopped
	child.StoppedAt = time.Now()

	log.Info().Str("childId", childID).Msg("child stopped")

	childCopy := *child
	return &childCopy, nil
}

// Get retrieves a ChildNode by ID.
func (r *Registry) Get(childID string) (*ChildNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	child, exists := r.children[childID]
	if !exists {
		return nil, fmt.Errorf("%s: %s", ErrChildNotFound, childID)
	}

	childCopy := *child
	return &childCopy, nil
}

// List returns every ChildNode matching filter (nil returns all).
func (r *Registry) List(filter *Filter) []*ChildNode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*ChildNode, 0, len(r.children))
	for _, child := range r.children {
		if filter != nil {
			if filter.ParentID != nil && child.ParentID != *filter.ParentID {
				continue
			}
			if filter.Status != nil && child.Status != *filter.Status {
				continue
			}
		}
		childCopy := *child
		result = append(result, &childCopy)
	}
	return result
}

// Remove deletes childID from the registry entirely (used after a
// stopped child has been reaped by the host).
func (r *Registry) Remove(childID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.children, childID)
}
