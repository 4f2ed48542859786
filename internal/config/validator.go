package config

import (
	"fmt"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"fatal": true,
	"panic": true,
}

// Validator groups standalone field-level checks used by Config.Validate
// and by the interactive Wizard as it collects input.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLogLevel checks level against zerolog's recognized level names.
func ValidateLogLevel(level string) error {
	if !validLogLevels[level] {
		return fmt.Errorf("invalid log level %q: must be one of trace, debug, info, warn, error, fatal, panic", level)
	}
	return nil
}

// ValidateTimerKind checks kind against the schedule kinds pkg/timersource
// understands.
func ValidateTimerKind(kind string) error {
	switch kind {
	case "at", "every", "cron":
		return nil
	default:
		return fmt.Errorf("invalid timer kind %q: must be one of at, every, cron", kind)
	}
}

// ValidatePort checks that port is a usable TCP port number.
func ValidatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port %d out of range: must be between 1 and 65535", port)
	}
	return nil
}

// ValidateSharedSecret checks that a gateway shared secret meets a
// minimum length, since it is compared with crypto/subtle for HMAC auth.
func ValidateSharedSecret(secret string) error {
	if len(secret) < 16 {
		return fmt.Errorf("shared secret must be at least 16 characters")
	}
	return nil
}

// ValidateConfig runs Config.Validate plus the standalone field checks
// above, so the wizard and the loader share one source of truth.
func (val *Validator) ValidateConfig(cfg *Config) error {
	return cfg.Validate()
}
