package node

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jido/runtime/pkg/commandqueue"
	"github.com/jido/runtime/pkg/runtime"
	"github.com/jido/runtime/pkg/signal"
)

type fakeChildServer struct {
	mu  sync.Mutex
	got []signal.Signal
}

func (f *fakeChildServer) ProcessSignal(ctx context.Context, sig signal.Signal) (runtime.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, sig)
	return runtime.StatusIdle, nil
}

func (f *fakeChildServer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func newTestTree(t *testing.T) (*Tree, *fakeChildServer) {
	t.Helper()
	fake := &fakeChildServer{}
	tree := NewTree("parent-1", func(childAgentID string, config map[string]interface{}) (ChildServer, error) {
		return fake, nil
	}, commandqueue.New(), zerolog.Nop())
	return tree, fake
}

func TestTree_SpawnRegistersRunningChild(t *testing.T) {
	tree, _ := newTestTree(t)

	require.NoError(t, tree.Spawn("child-agent", map[string]interface{}{"role": "sub"}))

	children := tree.List(nil)
	require.Len(t, children, 1)
	assert.Equal(t, ChildRunning, children[0].Status)
	assert.Equal(t, "parent-1", children[0].ParentID)
}

func TestTree_SubmitDispatchesToChildServer(t *testing.T) {
	tree, fake := newTestTree(t)
	require.NoError(t, tree.Spawn("child-agent", nil))

	childID := tree.List(nil)[0].ID
	sig := signal.New("child-agent", "cmd.ping").Build()
	require.NoError(t, tree.Submit(childID, sig))

	require.Eventually(t, func() bool {
		return fake.count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTree_StopMarksChildStoppedAndEndsMailbox(t *testing.T) {
	tree, _ := newTestTree(t)
	require.NoError(t, tree.Spawn("child-agent", nil))
	childID := tree.List(nil)[0].ID

	require.NoError(t, tree.Stop(childID))

	child, err := tree.Get(childID)
	require.NoError(t, err)
	assert.Equal(t, ChildStopped, child.Status)

	require.Eventually(t, func() bool {
		err := tree.Submit(childID, signal.New("child-agent", "cmd.ping").Build())
		return err != nil
	}, time.Second, 5*time.Millisecond, "mailbox goroutine should exit after Stop cancels its context")
}

func TestTree_SubmitToUnknownChildFails(t *testing.T) {
	tree, _ := newTestTree(t)
	err := tree.Submit("missing", signal.New("x", "cmd.ping").Build())
	assert.Error(t, err)
}

func TestRegistry_DuplicateRunningChildRejected(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&ChildNode{ID: "a", AgentID: "agent-a"}))
	require.NoError(t, r.MarkRunning("a"))

	err := r.Register(&ChildNode{ID: "a", AgentID: "agent-a"})
	assert.Error(t, err)
}

func TestRegistry_ListFiltersByParentAndStatus(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&ChildNode{ID: "a", AgentID: "x", ParentID: "p1"}))
	require.NoError(t, r.Register(&ChildNode{ID: "b", AgentID: "y", ParentID: "p2"}))
	require.NoError(t, r.MarkRunning("a"))

	p1 := "p1"
	result := r.List(&Filter{ParentID: &p1})
	require.Len(t, result, 1)
	assert.Equal(t, "a", result[0].ID)

	running := ChildRunning
	result = r.List(&Filter{Status: &running})
	require.Len(t, result, 1)
	assert.Equal(t, "a", result[0].ID)
}
