package node

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jido/runtime/pkg/commandqueue"
	"github.com/jido/runtime/pkg/runtime"
	"github.com/jido/runtime/pkg/signal"
)

// ChildServer is the subset of *runtime.Server the Tree drives,
// expressed as an interface so tests can substitute a fake without
// spinning up a real Server.
type ChildServer interface {
	ProcessSignal(ctx context.Context, sig signal.Signal) (runtime.Status, error)
}

// ServerFactory builds the child Server a SpawnChild directive
// describes. Hosts normally supply a closure that wires a fresh
// runtime.Server with its own agentstate.Agent, chain.Runner and
// emitter.Emitter, using childAgentID and the directive's config.
type ServerFactory func(childAgentID string, config map[string]interface{}) (ChildServer, error)

// Tree is a parent's run-tree: it backs the SpawnChild/StopChild
// server directives (§4.10), adapted from the teacher's NodeManager.
// SpawnChild starts a child Server behind its own mailbox goroutine;
// StopChild cancels that goroutine and marks the child stopped.
type Tree struct {
	registry      *Registry
	commandQueue  *commandqueue.CommandQueue
	newServer     ServerFactory
	parentID      string
	logger        zerolog.Logger
	eventHandlers map[string][]EventHandler
	eventMu       sync.RWMutex

	mailboxesMu sync.Mutex
	mailboxes   map[string]chan signal.Signal
}

// NewTree creates a Tree whose children are spawned by newServer and
// whose ParentID field is set to parentID.
func NewTree(parentID string, newServer ServerFactory, cq *commandqueue.CommandQueue, logger zerolog.Logger) *Tree {
	return &Tree{
		registry:      NewRegistry(),
		commandQueue:  cq,
		newServer:     newServer,
		parentID:      parentID,
		logger:        logger,
		eventHandlers: make(map[string][]EventHandler),
		mailboxes:     make(map[string]chan signal.Signal),
	}
}

// Spawn implements runtime.SpawnChildFunc: it builds a child Server
// via the configured factory, registers it, and starts an Executor
// goroutine that serially drains a dedicated mailbox channel by
// calling ProcessSignal on each inbound signal.
func (t *Tree) Spawn(childAgentID string, config map[string]interface{}) error {
	childID := fmt.Sprintf("%s-%s", childAgentID, uuid.NewString())

	server, err := t.newServer(childAgentID, config)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSpawnFailed, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	node := &ChildNode{
		ID:       childID,
		AgentID:  childAgentID,
		ParentID: t.parentID,
		Config:   config,
		cancel:   cancel,
	}
	if err := t.registry.Register(node); err != nil {
		cancel()
		return err
	}

	mailbox := make(chan signal.Signal, 64)
	t.mailboxesMu.Lock()
	t.mailboxes[childID] = mailbox
	t.mailboxesMu.Unlock()

	lane := t.lane(childID)
	t.commandQueue.SetConcurrency(lane, 1)

	go t.run(ctx, childID, server, mailbox)

	_ = t.registry.MarkRunning(childID)
	t.emit(Event{Type: "child.spawned", ChildID: childID, ParentID: t.parentID})

	return nil
}

// Stop implements runtime.StopChildFunc: it cancels the child's
// Executor goroutine and marks it stopped. The mailbox channel is
// left to the goroutine itself to close, avoiding a send-on-closed
// race with any producer still holding a reference to Submit.
func (t *Tree) Stop(childID string) error {
	if _, err := t.registry.MarkStopped(childID); err != nil {
		return err
	}
	t.emit(Event{Type: "child.stopped", ChildID: childID, ParentID: t.parentID})
	return nil
}

// Submit hands sig to childID's mailbox, to be dispatched serially by
// that child's Executor goroutine. It is how routers, timers, and the
// parent's own directive application reach a specific child.
func (t *Tree) Submit(childID string, sig signal.Signal) error {
	t.mailboxesMu.Lock()
	mailbox, ok := t.mailboxes[childID]
	t.mailboxesMu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %s", ErrChildNotFound, childID)
	}

	select {
	case mailbox <- sig:
		return nil
	default:
		return fmt.Errorf("child %s mailbox is full", childID)
	}
}

// Get returns the registered ChildNode for childID.
func (t *Tree) Get(childID string) (*ChildNode, error) {
	return t.registry.Get(childID)
}

// List returns every child matching filter.
func (t *Tree) List(filter *Filter) []*ChildNode {
	return t.registry.List(filter)
}

// On registers an event handler for child lifecycle events.
func (t *Tree) On(eventType string, handler EventHandler) {
	t.eventMu.Lock()
	defer t.eventMu.Unlock()
	t.eventHandlers[eventType] = append(t.eventHandlers[eventType], handler)
}

func (t *Tree) run(ctx context.Context, childID string, server ChildServer, mailbox chan signal.Signal) {
	defer func() {
		t.mailboxesMu.Lock()
		delete(t.mailboxes, childID)
		t.mailboxesMu.Unlock()
	}()

	lane := t.lane(childID)
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-mailbox:
			if !ok {
				return
			}
			_, err := t.commandQueue.Enqueue(lane, func(taskCtx context.Context) (interface{}, error) {
				_, err := server.ProcessSignal(taskCtx, sig)
				return nil, err
			}, nil)
			if err != nil {
				t.logger.Warn().Err(err).Str("childId", childID).Str("signal", sig.Type()).Msg("child dispatch failed")
			}
		}
	}
}

func (t *Tree) lane(childID string) string {
	return fmt.Sprintf("child-%s", childID)
}

func (t *Tree) emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	t.eventMu.RLock()
	handlers := t.eventHandlers[event.Type]
	t.eventMu.RUnlock()

	for _, handler := range handlers {
		go handler(event)
	}
}
