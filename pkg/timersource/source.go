package timersource

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jido/runtime/pkg/signal"
)

// Produce is called with each signal a Timer fires. Hosts normally
// wire this straight to a Server's ProcessSignal.
type Produce func(sig signal.Signal)

// timer tracks one scheduled recurrence.
type timer struct {
	id           string
	agentID      string
	signalType   string
	instructions []signal.Instruction
	schedule     Schedule
	clock        *time.Timer
}

// Source owns a set of named timers and fires a cmd.* signal for each
// as it comes due, rescheduling itself from its own Schedule
// afterward (every/cron recur; at fires once and is removed).
type Source struct {
	mu      sync.Mutex
	timers  map[string]*timer
	produce Produce
	logger  zerolog.Logger
	stopped bool
}

// New creates a Source that calls produce for every fired signal.
func New(produce Produce, logger zerolog.Logger) *Source {
	return &Source{
		timers:  make(map[string]*timer),
		produce: produce,
		logger:  logger,
	}
}

// AddTimer schedules id to fire a cmd.* signal of signalType carrying
// instructions for agentID, according to schedule.
func (s *Source) AddTimer(id, agentID, signalType string, instructions []signal.Instruction, schedule Schedule) error {
	at, err := nextRun(schedule)
	if err != nil {
		return fmt.Errorf("invalid schedule for timer %q: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("timer source is stopped")
	}

	t := &timer{
		id:           id,
		agentID:      agentID,
		signalType:   signalType,
		instructions: instructions,
		schedule:     schedule,
	}
	s.timers[id] = t
	s.armLocked(t, at)
	return nil
}

// RemoveTimer cancels and forgets id, if present.
func (s *Source) RemoveTimer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(id)
	delete(s.timers, id)
}

// Stop cancels every outstanding timer; no further signals fire.
func (s *Source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id := range s.timers {
		s.cancelLocked(id)
	}
}

func (s *Source) armLocked(t *timer, atMs int64) {
	delay := atMs - time.Now().UnixMilli()
	if delay < 0 {
		delay = 0
	}
	t.clock = time.AfterFunc(time.Duration(delay)*time.Millisecond, func() {
		s.fire(t.id)
	})
}

func (s *Source) cancelLocked(id string) {
	if t, ok := s.timers[id]; ok && t.clock != nil {
		t.clock.Stop()
	}
}

func (s *Source) fire(id string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	t, ok := s.timers[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	sig := signal.New(t.agentID, t.signalType).WithInstructions(t.instructions).Build()
	s.logger.Debug().Str("timer_id", t.id).Str("signal", sig.Type()).Msg("timer fired")
	s.produce(sig)

	if t.schedule.Kind == ScheduleAt {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		return
	}

	next, err := nextRun(t.schedule)
	if err != nil {
		s.logger.Warn().Err(err).Str("timer_id", t.id).Msg("failed to compute next run, timer will not recur")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if _, ok := s.timers[id]; !ok {
		return
	}
	s.armLocked(t, next)
}
