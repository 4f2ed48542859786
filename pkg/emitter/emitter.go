package emitter

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/jido/runtime/pkg/signal"
)

// Handler receives outbound event signals for a single subscription.
// The emitter guarantees handler is never invoked concurrently with
// itself, so it may safely keep unsynchronized state.
type Handler func(sig signal.Signal)

const defaultBufferSize = 64

// subscription owns a bounded mailbox and the single goroutine that
// drains it into Handler, giving ordered, non-blocking delivery.
type subscription struct {
	name    string
	handler Handler
	mailbox chan signal.Signal
	logger  zerolog.Logger
	done    chan struct{}
}

func newSubscription(name string, bufferSize int, handler Handler, logger zerolog.Logger) *subscription {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	s := &subscription{
		name:    name,
		handler: handler,
		mailbox: make(chan signal.Signal, bufferSize),
		logger:  logger.With().Str("subscriber", name).Logger(),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *subscription) run() {
	defer close(s.done)
	for sig := range s.mailbox {
		s.handler(sig)
	}
}

// deliver enqueues sig without blocking; if the mailbox is full the
// event is dropped and a warning logged (the emitter's default
// back-pressure policy).
func (s *subscription) deliver(sig signal.Signal) {
	select {
	case s.mailbox <- sig:
	default:
		s.logger.Warn().
			Str("event_id", sig.ID()).
			Str("event_type", sig.Type()).
			Msg("subscriber mailbox full, dropping event")
	}
}

func (s *subscription) close() {
	close(s.mailbox)
	<-s.done
}

// Emitter is the Output Emitter of §4.6: it converts (status quo,
// type, payload) into an event Signal and delivers it to every
// subscriber, best-effort and ordered per subscriber.
type Emitter struct {
	agentID string
	logger  zerolog.Logger

	mu   sync.RWMutex
	subs map[string]*subscription
}

// New creates an Emitter for agentID.
func New(agentID string, logger zerolog.Logger) *Emitter {
	return &Emitter{
		agentID: agentID,
		logger:  logger,
		subs:    make(map[string]*subscription),
	}
}

// Subscribe registers handler under name with a bounded mailbox of
// bufferSize (0 uses the default). Re-subscribing under an existing
// name replaces the previous subscription after draining it.
func (e *Emitter) Subscribe(name string, bufferSize int, handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.subs[name]; ok {
		existing.close()
	}
	e.subs[name] = newSubscription(name, bufferSize, handler, e.logger)
}

// Unsubscribe removes name, draining its mailbox first.
func (e *Emitter) Unsubscribe(name string) {
	e.mu.Lock()
	sub, ok := e.subs[name]
	delete(e.subs, name)
	e.mu.Unlock()

	if ok {
		sub.close()
	}
}

// Emit builds an event signal of the given type carrying payload and
// fans it out to every subscriber. It never blocks on a subscriber.
func (e *Emitter) Emit(eventType string, payload map[string]interface{}) signal.Signal {
	sig := signal.NewEvent(e.agentID, eventType).WithData(payload).Build()

	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, sub := range e.subs {
		sub.deliver(sig)
	}

	return sig
}

// Close drains and stops every subscription.
func (e *Emitter) Close() {
	e.mu.Lock()
	subs := e.subs
	e.subs = make(map[string]*subscription)
	e.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}
