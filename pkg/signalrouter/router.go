package signalrouter

import (
	"sort"
	"sync"

	"github.com/jido/runtime/pkg/runtimeerr"
	"github.com/jido/runtime/pkg/signal"
)

// Router evaluates content against its registered routes in
// descending priority order and builds the signal the first match
// names. It is the component §4.8 promotes out of the Executor.
type Router struct {
	agentID string
	matcher *patternMatcher

	mu     sync.RWMutex
	routes []Route
}

// New creates a Router for agentID.
func New(agentID string, cfg Config) *Router {
	return &Router{
		agentID: agentID,
		matcher: newPatternMatcher(cfg),
	}
}

// AddRoute registers route, keeping routes sorted by descending
// priority (ties keep insertion order, so earlier registrations win).
func (r *Router) AddRoute(route Route) error {
	if route.ID == "" || route.Pattern == "" || route.SignalType == "" {
		return runtimeerr.ValidationError("route missing required field", map[string]interface{}{
			"id": route.ID, "pattern": route.Pattern, "signal_type": route.SignalType,
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
	sort.SliceStable(r.routes, func(i, j int) bool {
		return r.routes[i].Priority > r.routes[j].Priority
	})
	return nil
}

// RemoveRoute deletes the route with the given id, if present.
func (r *Router) RemoveRoute(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, route := range r.routes {
		if route.ID == id {
			r.routes = append(r.routes[:i], r.routes[i+1:]...)
			return
		}
	}
}

// Route evaluates content against every registered route in priority
// order and returns the signal the first match builds, or false if
// nothing matched.
func (r *Router) Route(content string) (signal.Signal, bool) {
	r.mu.RLock()
	routes := append([]Route(nil), r.routes...)
	r.mu.RUnlock()

	for _, route := range routes {
		if r.matcher.match(route, content) {
			builder := builderFor(r.agentID, route)
			sig := builder.WithData(map[string]interface{}{
				"content":  content,
				"route_id": route.ID,
			}).Build()
			return sig, true
		}
	}

	return signal.Signal{}, false
}

func builderFor(agentID string, route Route) *signal.Builder {
	if route.Kind == signal.KindDirective {
		return signal.NewDirective(agentID, route.SignalType)
	}
	return signal.New(agentID, route.SignalType)
}

// ClearCache drops every cached compiled pattern and match result.
// Route registrations themselves are untouched.
func (r *Router) ClearCache() {
	r.matcher.clearCache()
}
