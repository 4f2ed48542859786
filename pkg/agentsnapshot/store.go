package agentsnapshot

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jido/runtime/internal/tracing"
	"github.com/jido/runtime/pkg/agentstate"
)

// Snapshot is one recorded state of an agent.
type Snapshot struct {
	AgentID             string                 `json:"agentId"`
	State               map[string]interface{} `json:"state"`
	Result              map[string]interface{} `json:"result,omitempty"`
	PendingInstructions int                    `json:"pendingInstructions"`
	Timestamp           time.Time              `json:"timestamp"`
}

// Store persists agent snapshots as JSONL, one file per agent ID,
// grounded on the teacher's SessionManager.
type Store struct {
	dir        string
	locksMu    sync.RWMutex
	writeLocks map[string]*sync.Mutex
}

// New creates a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &Store{dir: dir, writeLocks: make(map[string]*sync.Mutex)}, nil
}

func validateAgentID(agentID string) error {
	if agentID == "" {
		return fmt.Errorf("agent ID cannot be empty")
	}
	if strings.Contains(agentID, "..") || strings.ContainsAny(agentID, "/\\") || strings.Contains(agentID, "\x00") {
		return fmt.Errorf("agent ID contains invalid characters: %s", agentID)
	}
	return nil
}

func (s *Store) path(agentID string) string {
	return filepath.Join(s.dir, agentID+".jsonl")
}

func (s *Store) lockFor(agentID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.writeLocks[agentID]
	if !ok {
		lock = &sync.Mutex{}
		s.writeLocks[agentID] = lock
	}
	return lock
}

// Save appends a Snapshot of agent's current State/Result/pending
// instruction count to its file.
func (s *Store) Save(ctx context.Context, agent *agentstate.Agent) error {
	if agent == nil {
		return fmt.Errorf("agent is required")
	}
	if err := validateAgentID(agent.ID); err != nil {
		return err
	}

	ctx = tracing.WithAgentID(ctx, agent.ID)
	ctx, span := tracing.StartSpan(ctx, "runtime.agentsnapshot", "agentsnapshot.save",
		attribute.String("agent_id", agent.ID))
	defer span.End()

	lock := s.lockFor(agent.ID)
	lock.Lock()
	defer lock.Unlock()

	file, err := os.OpenFile(s.path(agent.ID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("open snapshot file: %w", err)
	}
	defer file.Close()

	snap := Snapshot{
		AgentID:             agent.ID,
		State:               agent.State,
		Result:              agent.Result,
		PendingInstructions: len(agent.PendingInstructions),
		Timestamp:           time.Now(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("write snapshot: %w", err)
	}
	return file.Sync()
}

// Latest returns the most recently saved Snapshot for agentID, or
// false if none exists.
func (s *Store) Latest(agentID string) (Snapshot, bool, error) {
	if err := validateAgentID(agentID); err != nil {
		return Snapshot{}, false, err
	}

	file, err := os.Open(s.path(agentID))
	if os.IsNotExist(err) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("open snapshot file: %w", err)
	}
	defer file.Close()

	var latest Snapshot
	found := false
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(line, &snap); err != nil {
			continue
		}
		latest = snap
		found = true
	}
	if err := scanner.Err(); err != nil {
		return Snapshot{}, false, fmt.Errorf("read snapshot file: %w", err)
	}
	return latest, found, nil
}

// Restore applies the latest Snapshot's State onto agent, if one
// exists, leaving agent untouched otherwise.
func (s *Store) Restore(agent *agentstate.Agent) error {
	if agent == nil {
		return fmt.Errorf("agent is required")
	}
	snap, ok, err := s.Latest(agent.ID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	agent.State = snap.State
	agent.Result = snap.Result
	return nil
}
