package signalrouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jido/runtime/pkg/signal"
)

func TestRouter_ExactMatchBuildsCommandSignal(t *testing.T) {
	r := New("agent-1", DefaultConfig())
	require.NoError(t, r.AddRoute(Route{
		ID: "ping", Pattern: "ping", Type: PatternExact, Priority: 10, SignalType: "ping",
	}))

	sig, ok := r.Route("ping")
	require.True(t, ok)
	assert.Equal(t, signal.KindCommand, sig.Kind())
	assert.Equal(t, "ping", sig.Data()["route_id"])
}

func TestRouter_DirectiveKindBuildsDirectiveSignal(t *testing.T) {
	r := New("agent-1", DefaultConfig())
	require.NoError(t, r.AddRoute(Route{
		ID: "pause", Pattern: "pause", Type: PatternExact, Priority: 10,
		SignalType: "pause", Kind: signal.KindDirective,
	}))

	sig, ok := r.Route("pause")
	require.True(t, ok)
	assert.Equal(t, signal.KindDirective, sig.Kind())
}

func TestRouter_HigherPriorityWinsOnOverlap(t *testing.T) {
	r := New("agent-1", DefaultConfig())
	require.NoError(t, r.AddRoute(Route{ID: "low", Pattern: "hello*", Type: PatternWildcard, Priority: 1, SignalType: "low"}))
	require.NoError(t, r.AddRoute(Route{ID: "high", Pattern: "hello world", Type: PatternExact, Priority: 100, SignalType: "high"}))

	sig, ok := r.Route("hello world")
	require.True(t, ok)
	assert.Equal(t, "high", sig.Data()["route_id"])
}

func TestRouter_NoMatchReturnsFalse(t *testing.T) {
	r := New("agent-1", DefaultConfig())
	require.NoError(t, r.AddRoute(Route{ID: "a", Pattern: "specific", Type: PatternExact, Priority: 1, SignalType: "a"}))

	_, ok := r.Route("something else")
	assert.False(t, ok)
}

func TestRouter_PrefixAndSuffixMatch(t *testing.T) {
	r := New("agent-1", DefaultConfig())
	require.NoError(t, r.AddRoute(Route{ID: "prefix", Pattern: "cmd.", Type: PatternPrefix, Priority: 5, SignalType: "prefixed"}))
	require.NoError(t, r.AddRoute(Route{ID: "suffix", Pattern: ".end", Type: PatternSuffix, Priority: 5, SignalType: "suffixed"}))

	sig, ok := r.Route("cmd.start")
	require.True(t, ok)
	assert.Equal(t, "prefix", sig.Data()["route_id"])

	sig, ok = r.Route("reach.end")
	require.True(t, ok)
	assert.Equal(t, "suffix", sig.Data()["route_id"])
}

func TestRouter_RegexMatchIsCached(t *testing.T) {
	r := New("agent-1", DefaultConfig())
	require.NoError(t, r.AddRoute(Route{ID: "digits", Pattern: `^\d+$`, Type: PatternRegex, Priority: 1, SignalType: "digits"}))

	_, ok := r.Route("12345")
	assert.True(t, ok)
	_, ok = r.Route("12345")
	assert.True(t, ok, "second call should hit the result cache and still match")

	_, ok = r.Route("not-digits")
	assert.False(t, ok)
}

func TestRouter_UnsafeRegexIsRejectedAtMatchTime(t *testing.T) {
	r := New("agent-1", DefaultConfig())
	require.NoError(t, r.AddRoute(Route{ID: "evil", Pattern: "(a+)+", Type: PatternRegex, Priority: 1, SignalType: "evil"}))

	_, ok := r.Route("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa!")
	assert.False(t, ok, "nested-quantifier patterns never match, they fail validation instead")
}

func TestRouter_AddRouteRejectsMissingFields(t *testing.T) {
	r := New("agent-1", DefaultConfig())
	err := r.AddRoute(Route{ID: "", Pattern: "x", SignalType: "x"})
	assert.Error(t, err)
}

func TestRouter_RemoveRoute(t *testing.T) {
	r := New("agent-1", DefaultConfig())
	require.NoError(t, r.AddRoute(Route{ID: "a", Pattern: "x", Type: PatternExact, Priority: 1, SignalType: "x"}))
	r.RemoveRoute("a")

	_, ok := r.Route("x")
	assert.False(t, ok)
}
