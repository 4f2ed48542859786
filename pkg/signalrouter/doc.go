// Package signalrouter maps inbound content (chat text, webhook
// payloads, gateway frames) to outbound cmd.*/cmd.directive.* signals
// by priority-ordered pattern match, promoted out of the Executor per
// §4.8 so Server never has to know where a signal's shape came from.
//
// Invariants:
// - Routes are evaluated in descending priority order; the first
//   match wins.
// - A route's compiled pattern and recent match results are cached;
//   cache eviction never changes which route wins, only how fast.
package signalrouter
