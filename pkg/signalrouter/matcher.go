package signalrouter

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jido/runtime/pkg/runtimeerr"
)

type compiledPattern struct {
	patternType   PatternType
	regex         *regexp.Regexp
	wildcardRegex *regexp.Regexp
}

// patternMatcher evaluates Route patterns against content, caching
// both compiled patterns and recent match results.
type patternMatcher struct {
	cfg Config

	compileMu sync.RWMutex
	compiled  map[string]*compiledPattern
	results   *lruCache
}

func newPatternMatcher(cfg Config) *patternMatcher {
	return &patternMatcher{
		cfg:      cfg,
		compiled: make(map[string]*compiledPattern),
		results:  newLRUCache(cfg.ResultCacheSize),
	}
}

func (m *patternMatcher) match(route Route, content string) bool {
	cacheKey := fmt.Sprintf("%s:%s:%s", route.Type, route.Pattern, content)
	if cached, ok := m.results.get(cacheKey); ok {
		return cached.(bool)
	}

	compiled, err := m.compile(route)
	if err != nil {
		return false
	}

	var result bool
	switch route.Type {
	case PatternExact:
		result = route.Pattern == content
	case PatternPrefix:
		result = strings.HasPrefix(content, route.Pattern)
	case PatternSuffix:
		result = strings.HasSuffix(content, route.Pattern)
	case PatternWildcard:
		result = compiled.wildcardRegex != nil && compiled.wildcardRegex.MatchString(content)
	case PatternRegex:
		result = m.matchRegexWithDeadline(compiled.regex, content)
	}

	m.results.put(cacheKey, result)
	return result
}

func (m *patternMatcher) compile(route Route) (*compiledPattern, error) {
	m.compileMu.RLock()
	if c, ok := m.compiled[route.Pattern]; ok {
		m.compileMu.RUnlock()
		return c, nil
	}
	m.compileMu.RUnlock()

	c := &compiledPattern{patternType: route.Type}

	switch route.Type {
	case PatternRegex:
		if err := validateRegexSafety(route.Pattern); err != nil {
			return nil, err
		}
		regex, err := regexp.Compile(route.Pattern)
		if err != nil {
			return nil, runtimeerr.ValidationError("invalid regex pattern", map[string]interface{}{"pattern": route.Pattern, "error": err.Error()})
		}
		c.regex = regex
	case PatternWildcard:
		regex, err := regexp.Compile(wildcardToRegex(route.Pattern))
		if err != nil {
			return nil, runtimeerr.ValidationError("invalid wildcard pattern", map[string]interface{}{"pattern": route.Pattern, "error": err.Error()})
		}
		c.wildcardRegex = regex
	}

	m.compileMu.Lock()
	if len(m.compiled) >= m.cfg.PatternCacheSize {
		m.evictOneCompiled()
	}
	m.compiled[route.Pattern] = c
	m.compileMu.Unlock()

	return c, nil
}

func (m *patternMatcher) evictOneCompiled() {
	for k := range m.compiled {
		delete(m.compiled, k)
		return
	}
}

// matchRegexWithDeadline bounds a regex match so a pathological
// pattern cannot stall the router's caller.
func (m *patternMatcher) matchRegexWithDeadline(re *regexp.Regexp, content string) bool {
	if re == nil {
		return false
	}

	timeout := time.Duration(m.cfg.RegexTimeoutMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan bool, 1)
	go func() { done <- re.MatchString(content) }()

	select {
	case result := <-done:
		return result
	case <-ctx.Done():
		return false
	}
}

func (m *patternMatcher) clearCache() {
	m.compileMu.Lock()
	m.compiled = make(map[string]*compiledPattern)
	m.compileMu.Unlock()
	m.results.clear()
}

func wildcardToRegex(pattern string) string {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	escaped = strings.ReplaceAll(escaped, `\?`, ".")
	return "^" + escaped + "$"
}

// validateRegexSafety rejects patterns likely to cause catastrophic
// backtracking before they are ever compiled.
func validateRegexSafety(pattern string) error {
	if len(pattern) > 1000 {
		return runtimeerr.ValidationError("regex pattern too long", map[string]interface{}{"max_len": 1000})
	}
	if hasNestedQuantifiers(pattern) {
		return runtimeerr.ValidationError("regex pattern has nested quantifiers", nil)
	}
	if countAlternations(pattern) > 100 {
		return runtimeerr.ValidationError("regex pattern has too many alternation branches", map[string]interface{}{"max_branches": 100})
	}
	if hasExcessiveQuantifiers(pattern) {
		return runtimeerr.ValidationError("regex pattern has excessive quantifier repetition", nil)
	}
	return nil
}

func hasNestedQuantifiers(pattern string) bool {
	nested := []string{
		`\([^)]*[+*]\)[+*]`,
		`\([^)]*\{[^}]+\}\)[+*]`,
	}
	for _, np := range nested {
		if matched, _ := regexp.MatchString(np, pattern); matched {
			return true
		}
	}
	return false
}

func countAlternations(pattern string) int {
	count := 1
	depth := 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '|':
			if depth == 0 {
				count++
			}
		case '\\':
			i++
		}
	}
	return count
}

func hasExcessiveQuantifiers(pattern string) bool {
	quantifier := regexp.MustCompile(`\{(\d+)(?:,(\d+))?\}`)
	for _, match := range quantifier.FindAllStringSubmatch(pattern, -1) {
		if len(match) > 1 {
			if n := atoiSafe(match[1]); n > 1000 {
				return true
			}
		}
		if len(match) > 2 && match[2] != "" {
			if n := atoiSafe(match[2]); n > 1000 {
				return true
			}
		}
	}
	return false
}

func atoiSafe(s string) int {
	var n int
	fmt.Sscanf(s, "%d", &n)
	return n
}
