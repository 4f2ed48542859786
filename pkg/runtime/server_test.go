package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jido/runtime/pkg/action"
	"github.com/jido/runtime/pkg/agentstate"
	"github.com/jido/runtime/pkg/chain"
	"github.com/jido/runtime/pkg/emitter"
	"github.com/jido/runtime/pkg/signal"
	"github.com/jido/runtime/pkg/workflow"
)

func echoAction(extra map[string]interface{}) action.Action {
	return action.Func(func(ctx context.Context, params, runContext map[string]interface{}) action.Outcome {
		result := signal.Merge(params, extra)
		return action.Ok(result)
	})
}

func newTestServer(t *testing.T, actions map[string]action.Action) (*Server, *recordingSubscriber) {
	t.Helper()

	em := emitter.New("agent-1", zerolog.Nop())
	sub := newRecordingSubscriber()
	em.Subscribe("test", 64, sub.handle)

	resolver := func(actionID string) (action.Action, bool) {
		act, ok := actions[actionID]
		return act, ok
	}
	executor := workflow.NewExecutor(workflow.Config{Logger: zerolog.Nop()})
	runner := chain.NewRunner(resolver, executor)

	ag := agentstate.New("agent-1")
	s := NewServer("agent-1", ag, em, ChainCmd(runner))
	require.NoError(t, s.Transition(StatusIdle))

	return s, sub
}

type recordingSubscriber struct {
	mu       sync.Mutex
	types    []string
	payloads map[string]map[string]interface{}
}

func newRecordingSubscriber() *recordingSubscriber {
	return &recordingSubscriber{payloads: make(map[string]map[string]interface{})}
}

func (r *recordingSubscriber) handle(sig signal.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, sig.Type())
	r.payloads[sig.Type()] = sig.Data()
}

func (r *recordingSubscriber) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}

func (r *recordingSubscriber) payloadFor(eventType string) map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payloads[eventType]
}

// waitForEvent blocks until want appears in sub's recorded event
// types, polling instead of asserting against a synchronous read —
// the emitter fans events out to one mailbox goroutine per
// subscriber (emitter.go), so delivery is asynchronous with respect
// to the Emit call that triggered it. Because a subscription drains
// its mailbox in order on a single goroutine, observing a later
// terminal event (e.g. queue.processing.completed) guarantees every
// event emitted before it in the same drain pass already landed.
func waitForEvent(t *testing.T, sub *recordingSubscriber, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, ev := range sub.snapshot() {
			if ev == want {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond, "event %q was never delivered", want)
}

func TestServer_CommandSucceedsAndReturnsIdle(t *testing.T) {
	s, sub := newTestServer(t, map[string]action.Action{
		"greet": echoAction(map[string]interface{}{"greeted": true}),
	})

	sig := signal.New("agent-1", "greet").
		WithInstructions([]signal.Instruction{{Action: "greet", Params: map[string]interface{}{"name": "ada"}}}).
		Build()

	status, err := s.ProcessSignal(context.Background(), sig)

	require.NoError(t, err)
	assert.Equal(t, StatusIdle, status)

	waitForEvent(t, sub, "jido.agent.event.queue.processing.completed")

	events := sub.snapshot()
	assert.Contains(t, events, "jido.agent.event.queue.processing.started")
	assert.Contains(t, events, "jido.agent.event.cmd.success")
	assert.Contains(t, events, "jido.agent.event.queue.step.completed")
	assert.Contains(t, events, "jido.agent.event.queue.processing.completed")
}

func TestServer_UnknownActionFailsAndPreservesQueue(t *testing.T) {
	s, sub := newTestServer(t, map[string]action.Action{})

	bad := signal.New("agent-1", "missing").
		WithInstructions([]signal.Instruction{{Action: "missing"}}).
		Build()
	good := signal.New("agent-1", "greet").
		WithInstructions([]signal.Instruction{{Action: "greet"}}).
		Build()

	s.enqueue(bad)
	s.enqueue(good)

	status, err := s.Drain(context.Background())

	require.Error(t, err)
	assert.Equal(t, StatusIdle, status)
	assert.Equal(t, 1, s.QueueLength(), "the unexecuted signal behind the failure stays queued")

	waitForEvent(t, sub, "jido.agent.event.queue.processing.failed")

	events := sub.snapshot()
	assert.Contains(t, events, "jido.agent.event.queue.step.failed")
	assert.Contains(t, events, "jido.agent.event.queue.processing.failed")
	assert.NotContains(t, events, "jido.agent.event.queue.processing.completed")
}

func TestServer_PausedAgentRequeuesWithoutDispatching(t *testing.T) {
	s, sub := newTestServer(t, map[string]action.Action{
		"greet": echoAction(nil),
	})
	require.NoError(t, s.Transition(StatusPaused))

	a := signal.New("agent-1", "greet").WithInstructions([]signal.Instruction{{Action: "greet"}}).Build()
	b := signal.New("agent-1", "greet").WithInstructions([]signal.Instruction{{Action: "greet"}}).Build()

	statusA, errA := s.ProcessSignal(context.Background(), a)
	statusB, errB := s.ProcessSignal(context.Background(), b)

	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, StatusPaused, statusA)
	assert.Equal(t, StatusPaused, statusB)
	assert.Equal(t, 2, s.QueueLength())
	assert.Empty(t, sub.snapshot(), "no queue or step events fire while paused")

	require.NoError(t, s.Transition(StatusIdle))
	status, err := s.Drain(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusIdle, status)
	assert.Equal(t, 0, s.QueueLength())

	waitForEvent(t, sub, "jido.agent.event.queue.processing.completed")

	events := sub.snapshot()
	assert.Equal(t, 2, countOccurrences(events, "jido.agent.event.queue.step.completed"))
}

func TestServer_DirectivePathTransitionsServerDirective(t *testing.T) {
	s, _ := newTestServer(t, map[string]action.Action{})

	directive := signal.Directive{Type: signal.DirectiveSpawnChild, ChildAgentID: "child-1"}
	var spawned string
	s.onSpawnChild = func(childAgentID string, config map[string]interface{}) error {
		spawned = childAgentID
		return nil
	}

	sig := signal.NewDirective("agent-1", "spawn").
		WithData(map[string]interface{}{"directive": directive}).
		Build()

	status, err := s.ProcessSignal(context.Background(), sig)

	require.NoError(t, err)
	assert.Equal(t, StatusIdle, status)
	assert.Equal(t, "child-1", spawned)
}

func TestServer_DirectivePathMissingDirectiveIsInvalidFormat(t *testing.T) {
	s, _ := newTestServer(t, map[string]action.Action{})

	sig := signal.NewDirective("agent-1", "spawn").Build()

	_, err := s.ProcessSignal(context.Background(), sig)
	require.Error(t, err)
}

func TestServer_PendingInstructionsMaterializeAsFreshCommandSignals(t *testing.T) {
	followOn := signal.Instruction{Action: "greet"}
	s, _ := newTestServer(t, map[string]action.Action{
		"enqueue": action.Func(func(ctx context.Context, params, runContext map[string]interface{}) action.Outcome {
			return action.OkDirective(nil, signal.Directive{
				Type:         signal.DirectiveEnqueueInstructions,
				Instructions: []signal.Instruction{followOn},
			})
		}),
		"greet": echoAction(nil),
	})

	sig := signal.New("agent-1", "enqueue").
		WithInstructions([]signal.Instruction{{Action: "enqueue"}}).
		Build()

	status, err := s.ProcessSignal(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, status)
	assert.Equal(t, 0, s.QueueLength(), "the freshly materialized signal already drained in the same pass")
}

func TestServer_UnknownSignalKindIsIgnored(t *testing.T) {
	s, sub := newTestServer(t, map[string]action.Action{})

	ev := signal.NewEvent("agent-1", "ping").Build()
	status, err := s.ProcessSignal(context.Background(), ev)

	require.NoError(t, err)
	assert.Equal(t, StatusIdle, status)

	waitForEvent(t, sub, "jido.agent.event.queue.processing.completed")

	events := sub.snapshot()
	assert.Contains(t, events, "jido.agent.event.queue.step.ignored")
	assert.NotContains(t, events, "jido.agent.event.queue.step.completed",
		"an ignored signal must never be reported as completed")

	payload := sub.payloadFor("jido.agent.event.queue.step.ignored")
	require.NotNil(t, payload)
	assert.Equal(t, "unknown_signal_type", payload["reason"])
	assert.Equal(t, ev.Type(), payload["type"])
}

func TestServer_InvalidStatusRejectsDispatch(t *testing.T) {
	em := emitter.New("agent-1", zerolog.Nop())
	ag := agentstate.New("agent-1")
	s := NewServer("agent-1", ag, em, ChainCmd(chain.NewRunner(func(string) (action.Action, bool) { return nil, false }, workflow.NewExecutor(workflow.Config{Logger: zerolog.Nop()}))))
	// left in StatusInitializing deliberately

	sig := signal.New("agent-1", "greet").Build()
	_, err := s.ProcessSignal(context.Background(), sig)
	require.Error(t, err)
}

func countOccurrences(items []string, target string) int {
	n := 0
	for _, item := range items {
		if item == target {
			n++
		}
	}
	return n
}

func TestServer_ConcurrentSubmittersSerialize(t *testing.T) {
	s, _ := newTestServer(t, map[string]action.Action{
		"slow": action.Func(func(ctx context.Context, params, runContext map[string]interface{}) action.Outcome {
			time.Sleep(5 * time.Millisecond)
			return action.Ok(nil)
		}),
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig := signal.New("agent-1", "slow").WithInstructions([]signal.Instruction{{Action: "slow"}}).Build()
			_, _ = s.ProcessSignal(context.Background(), sig)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, s.QueueLength())
	assert.Equal(t, StatusIdle, s.Status())
}
