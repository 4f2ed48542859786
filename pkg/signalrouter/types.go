package signalrouter

import "github.com/jido/runtime/pkg/signal"

// PatternType selects how a Route's Pattern is matched against content.
type PatternType string

const (
	PatternExact    PatternType = "exact"
	PatternPrefix   PatternType = "prefix"
	PatternSuffix   PatternType = "suffix"
	PatternWildcard PatternType = "wildcard"
	PatternRegex    PatternType = "regex"
)

// Route maps matching content to a signal type the router builds on a hit.
type Route struct {
	ID         string
	Pattern    string
	Type       PatternType
	Priority   int
	SignalType string
	Kind       signal.Kind
}

// Config bounds the router's caches and regex matching budget.
type Config struct {
	PatternCacheSize int
	ResultCacheSize  int
	RegexTimeoutMs   int
}

// DefaultConfig returns conservative cache and timeout defaults.
func DefaultConfig() Config {
	return Config{
		PatternCacheSize: 256,
		ResultCacheSize:  1024,
		RegexTimeoutMs:   50,
	}
}
