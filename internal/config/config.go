// Package config loads and validates the on-disk configuration for a
// runtime host process: data directories, the gateway/webhook signal
// sources, scheduled timers, plugin and hook locations, and logging.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Config is the runtime host's top-level configuration.
type Config struct {
	AgentID string `json:"agent_id" mapstructure:"agent_id"`
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
	Gateway  GatewayConfig  `json:"gateway" mapstructure:"gateway"`
	Webhook  WebhookConfig  `json:"webhook" mapstructure:"webhook"`
	Timers   []TimerConfig  `json:"timers" mapstructure:"timers"`
	Plugins  PluginsConfig  `json:"plugins" mapstructure:"plugins"`
	Hooks    HooksConfig    `json:"hooks" mapstructure:"hooks"`
	Snapshot SnapshotConfig `json:"snapshot" mapstructure:"snapshot"`
	Action   ActionConfig   `json:"action" mapstructure:"action"`
}

// LoggingConfig configures internal/logger's zerolog wrapper.
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"`
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// GatewayConfig configures pkg/gatewaysource's WebSocket listener.
type GatewayConfig struct {
	Enabled      bool   `json:"enabled" mapstructure:"enabled"`
	Port         int    `json:"port" mapstructure:"port"`
	Host         string `json:"host" mapstructure:"host"`
	SharedSecret string `json:"shared_secret" mapstructure:"shared_secret"`
}

// WebhookConfig configures pkg/webhooksource's HTTP listener.
type WebhookConfig struct {
	Enabled           bool   `json:"enabled" mapstructure:"enabled"`
	Port              int    `json:"port" mapstructure:"port"`
	Host              string `json:"host" mapstructure:"host"`
	TimeoutSeconds    int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxRequestsPerMin int    `json:"max_requests_per_minute" mapstructure:"max_requests_per_minute"`
}

// TimerConfig describes one pkg/timersource schedule to register at
// startup.
type TimerConfig struct {
	ID         string `json:"id" mapstructure:"id"`
	SignalType string `json:"signal_type" mapstructure:"signal_type"`
	Kind       string `json:"kind" mapstructure:"kind"` // at, every, cron
	At         string `json:"at" mapstructure:"at"`
	EveryMs    int64  `json:"every_ms" mapstructure:"every_ms"`
	Expr       string `json:"expr" mapstructure:"expr"`
	TZ         string `json:"tz" mapstructure:"tz"`
}

// PluginsConfig points pkg/actionplugin at its plug-in binaries.
type PluginsConfig struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

// HookConfig describes one pkg/hooks.Hook to register.
type HookConfig struct {
	ID        string `json:"id" mapstructure:"id"`
	Event     string `json:"event" mapstructure:"event"`
	Script    string `json:"script" mapstructure:"script"`
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	TimeoutMs int64  `json:"timeout_ms" mapstructure:"timeout_ms"`
}

// HooksConfig configures pkg/hooks.Manager.
type HooksConfig struct {
	Enabled bool         `json:"enabled" mapstructure:"enabled"`
	Entries []HookConfig `json:"entries" mapstructure:"entries"`
}

// SnapshotConfig configures pkg/agentsnapshot's persistence store.
type SnapshotConfig struct {
	Enabled          bool   `json:"enabled" mapstructure:"enabled"`
	Dir              string `json:"dir" mapstructure:"dir"`
	IntervalSeconds  int    `json:"interval_seconds" mapstructure:"interval_seconds"`
}

// ActionConfig configures pkg/action's schema validation behavior.
type ActionConfig struct {
	StrictValidation bool `json:"strict_validation" mapstructure:"strict_validation"`
}

// DefaultConfig returns a Config with safe defaults for a single-node
// runtime host with no external signal sources enabled.
func DefaultConfig() *Config {
	return &Config{
		AgentID: "default",
		DataDir: "~/.runtime",
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Gateway: GatewayConfig{
			Enabled: false,
			Port:    8090,
			Host:    "0.0.0.0",
		},
		Webhook: WebhookConfig{
			Enabled:           false,
			Port:              8091,
			Host:              "0.0.0.0",
			TimeoutSeconds:    30,
			MaxRequestsPerMin: 60,
		},
		Plugins: PluginsConfig{
			Dir: "~/.runtime/plugins",
		},
		Hooks: HooksConfig{
			Enabled: false,
		},
		Snapshot: SnapshotConfig{
			Enabled:         true,
			Dir:             "~/.runtime/snapshots",
			IntervalSeconds: 30,
		},
		Action: ActionConfig{
			StrictValidation: false,
		},
	}
}

// String renders the configuration as indented JSON for diagnostics.
func (c *Config) String() string {
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("<config marshal error: %v>", err)
	}
	return string(raw)
}

// Validate checks the configuration for internal consistency. It does
// not touch the filesystem or network.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AgentID) == "" {
		return fmt.Errorf("agent_id is required")
	}

	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is required")
	}

	if err := ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}

	if c.Gateway.Enabled {
		if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
			return fmt.Errorf("gateway.port must be between 1 and 65535")
		}
		if strings.TrimSpace(c.Gateway.SharedSecret) == "" {
			return fmt.Errorf("gateway.shared_secret is required when the gateway is enabled")
		}
	}

	if c.Webhook.Enabled {
		if c.Webhook.Port <= 0 || c.Webhook.Port > 65535 {
			return fmt.Errorf("webhook.port must be between 1 and 65535")
		}
		if c.Webhook.MaxRequestsPerMin <= 0 {
			return fmt.Errorf("webhook.max_requests_per_minute must be positive")
		}
	}

	for _, t := range c.Timers {
		if err := validateTimer(t); err != nil {
			return err
		}
	}

	if c.Hooks.Enabled {
		for _, h := range c.Hooks.Entries {
			if !h.Enabled {
				continue
			}
			if strings.TrimSpace(h.Event) == "" {
				return fmt.Errorf("hooks: entry %q: event is required", h.ID)
			}
			if strings.TrimSpace(h.Script) == "" {
				return fmt.Errorf("hooks: entry %q: script is required", h.ID)
			}
		}
	}

	return nil
}

func validateTimer(t TimerConfig) error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("timer: id is required")
	}
	if strings.TrimSpace(t.SignalType) == "" {
		return fmt.Errorf("timer %s: signal_type is required", t.ID)
	}
	switch t.Kind {
	case "at":
		if strings.TrimSpace(t.At) == "" {
			return fmt.Errorf("timer %s: at is required for kind \"at\"", t.ID)
		}
	case "every":
		if t.EveryMs <= 0 {
			return fmt.Errorf("timer %s: every_ms must be positive for kind \"every\"", t.ID)
		}
	case "cron":
		if strings.TrimSpace(t.Expr) == "" {
			return fmt.Errorf("timer %s: expr is required for kind \"cron\"", t.ID)
		}
	default:
		return fmt.Errorf("timer %s: invalid kind %q, want at, every, or cron", t.ID, t.Kind)
	}
	return nil
}
