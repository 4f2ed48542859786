package signal

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Pair is a single {Key, Value} entry accepted wherever a params or
// context mapping is expected, as an alternative to a plain map.
type Pair struct {
	Key   string      `mapstructure:"key"`
	Value interface{} `mapstructure:"value"`
}

// NormalizeMapping accepts a map[string]interface{}, a []Pair, or a
// []map[string]interface{} of {key, value} entries, and returns a
// plain map[string]interface{}. Anything else is a validation error.
//
// Normalizing an already-normalized mapping is a no-op (round-trip law).
func NormalizeMapping(v interface{}) (map[string]interface{}, error) {
	if v == nil {
		return map[string]interface{}{}, nil
	}

	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, nil
	case []Pair:
		out := make(map[string]interface{}, len(t))
		for _, p := range t {
			out[p.Key] = p.Value
		}
		return out, nil
	case []map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for _, entry := range t {
			key, hasKey := entry["key"]
			val := entry["value"]
			if !hasKey {
				return nil, fmt.Errorf("pair entry missing %q", "key")
			}
			keyStr, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("pair key must be a string, got %T", key)
			}
			out[keyStr] = val
		}
		return out, nil
	case []interface{}:
		pairs := make([]Pair, 0, len(t))
		for _, entry := range t {
			var pair Pair
			if err := decodeInto(entry, &pair); err != nil {
				return nil, fmt.Errorf("invalid pair entry: %w", err)
			}
			pairs = append(pairs, pair)
		}
		return NormalizeMapping(pairs)
	default:
		return nil, fmt.Errorf("unsupported mapping type %T: expected a map or list of {key, value} pairs", v)
	}
}

func decodeInto(src interface{}, dst interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(src)
}

// Merge overrides base with overrides, returning a new map. Neither
// input is mutated.
func Merge(base, overrides map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// BoolOpt reads a bool option with a default.
func BoolOpt(opts map[string]interface{}, key string, def bool) bool {
	v, ok := opts[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// IntOpt reads an int option with a default, accepting int/int64/float64.
func IntOpt(opts map[string]interface{}, key string, def int) int {
	v, ok := opts[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

// StringOpt reads a string option with a default.
func StringOpt(opts map[string]interface{}, key string, def string) string {
	v, ok := opts[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}
