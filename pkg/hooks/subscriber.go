package hooks

import (
	"context"

	"github.com/jido/runtime/pkg/emitter"
	"github.com/jido/runtime/pkg/signal"
)

// Subscribe registers the manager on e as a Handler under name, so every
// emitted event signal triggers any hooks configured for its Type. Hook
// failures are logged rather than propagated, since the emitter's
// Handler contract has no error return.
func (m *Manager) Subscribe(e *emitter.Emitter, name string) {
	e.Subscribe(name, 0, m.handle)
}

func (m *Manager) handle(sig signal.Signal) {
	if err := m.Trigger(context.Background(), sig.Type(), sig.Data()); err != nil {
		m.logger.Error().
			Err(err).
			Str("event_type", sig.Type()).
			Str("event_id", sig.ID()).
			Msg("hook execution failed")
	}
}
