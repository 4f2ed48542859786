package timersource

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jido/runtime/pkg/signal"
)

type collector struct {
	mu   sync.Mutex
	sigs []signal.Signal
}

func (c *collector) produce(sig signal.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sigs = append(c.sigs, sig)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sigs)
}

func TestSource_EveryScheduleFiresRepeatedly(t *testing.T) {
	c := &collector{}
	src := New(c.produce, zerolog.Nop())
	defer src.Stop()

	err := src.AddTimer("tick", "agent-1", "tick", nil, Schedule{Kind: ScheduleEvery, EveryMs: 10})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return c.count() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSource_AtScheduleFiresOnceAndRemoves(t *testing.T) {
	c := &collector{}
	src := New(c.produce, zerolog.Nop())
	defer src.Stop()

	at := time.Now().Add(10 * time.Millisecond).UTC().Format(time.RFC3339)
	err := src.AddTimer("once", "agent-1", "wake", nil, Schedule{Kind: ScheduleAt, At: at})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return c.count() >= 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, c.count(), "an 'at' schedule fires exactly once")
}

func TestSource_InvalidScheduleRejected(t *testing.T) {
	src := New(func(signal.Signal) {}, zerolog.Nop())
	defer src.Stop()

	err := src.AddTimer("bad", "agent-1", "x", nil, Schedule{Kind: ScheduleEvery, EveryMs: 0})
	assert.Error(t, err)
}

func TestSource_RemoveTimerPreventsFurtherFires(t *testing.T) {
	c := &collector{}
	src := New(c.produce, zerolog.Nop())
	defer src.Stop()

	require.NoError(t, src.AddTimer("tick", "agent-1", "tick", nil, Schedule{Kind: ScheduleEvery, EveryMs: 10}))
	time.Sleep(15 * time.Millisecond)
	src.RemoveTimer("tick")

	n := c.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, c.count(), "no further fires after removal")
}
