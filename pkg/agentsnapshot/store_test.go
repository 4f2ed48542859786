package agentsnapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jido/runtime/pkg/agentstate"
)

func TestStore_SaveThenLatestRoundTrips(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	agent := agentstate.New("agent-1")
	agent.State["count"] = float64(1)

	require.NoError(t, store.Save(context.Background(), agent))

	agent.State["count"] = float64(2)
	require.NoError(t, store.Save(context.Background(), agent))

	snap, ok, err := store.Latest("agent-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(2), snap.State["count"])
}

func TestStore_LatestOnUnknownAgentReturnsFalse(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok, err := store.Latest("never-saved")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_RestoreAppliesLatestState(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	saved := agentstate.New("agent-1")
	saved.State["phase"] = "running"
	require.NoError(t, store.Save(context.Background(), saved))

	restored := agentstate.New("agent-1")
	require.NoError(t, store.Restore(restored))
	assert.Equal(t, "running", restored.State["phase"])
}

func TestStore_RestoreOnUnknownAgentLeavesStateUntouched(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	agent := agentstate.New("agent-1")
	agent.State["untouched"] = true
	require.NoError(t, store.Restore(agent))
	assert.Equal(t, true, agent.State["untouched"])
}

func TestStore_RejectsPathTraversalAgentID(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	agent := agentstate.New("../escape")
	err = store.Save(context.Background(), agent)
	assert.Error(t, err)
}
