package workflow

import (
	"time"

	"github.com/jido/runtime/pkg/signal"
)

// Telemetry controls how much detail the Workflow Executor emits per attempt.
type Telemetry string

const (
	TelemetryFull    Telemetry = "full"
	TelemetryMinimal Telemetry = "minimal"
	TelemetrySilent  Telemetry = "silent"
)

// Options configures a single workflow invocation (§4.2).
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	Telemetry  Telemetry

	// StrictValidation carries the per-signal `strict_validation` opt
	// (§6), if present. Nil means the signal didn't set it, so the
	// action's own configured default (if any) applies.
	StrictValidation *bool
}

const (
	defaultTimeout    = 5000 * time.Millisecond
	defaultMaxRetries = 1
	defaultBackoff    = 250 * time.Millisecond
	maxBackoff        = 30000 * time.Millisecond
)

// DefaultOptions returns the §4.2 option defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:    defaultTimeout,
		MaxRetries: defaultMaxRetries,
		Backoff:    defaultBackoff,
		Telemetry:  TelemetryFull,
	}
}

// OptionsFromMap reads Options out of a signal's bounded opts mapping,
// falling back to defaults for absent or malformed keys.
func OptionsFromMap(opts map[string]interface{}) Options {
	o := DefaultOptions()
	if opts == nil {
		return o
	}

	if ms := signal.IntOpt(opts, "timeout", int(defaultTimeout/time.Millisecond)); ms >= 0 {
		o.Timeout = time.Duration(ms) * time.Millisecond
	}
	o.MaxRetries = signal.IntOpt(opts, "max_retries", defaultMaxRetries)
	if backoffMs := signal.IntOpt(opts, "backoff", int(defaultBackoff/time.Millisecond)); backoffMs >= 0 {
		o.Backoff = time.Duration(backoffMs) * time.Millisecond
	}
	o.Telemetry = Telemetry(signal.StringOpt(opts, "telemetry", string(TelemetryFull)))

	if raw, ok := opts["strict_validation"]; ok {
		if b, ok := raw.(bool); ok {
			o.StrictValidation = &b
		}
	}

	return o
}

// backoffFor returns the capped exponential backoff for a given retry count.
func backoffFor(base time.Duration, retryCount int) time.Duration {
	d := base
	for i := 0; i < retryCount; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
