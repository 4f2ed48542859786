package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "RUNTIME"

// Loader reads and writes Config from a JSON file on disk, layered with
// RUNTIME_* environment overrides via viper.
type Loader struct {
	configPath string
}

// NewLoader creates a Loader. An empty configPath defers to the default
// location under the user's home directory.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load reads the configuration file, falling back to DefaultConfig
// values for anything unset, with RUNTIME_* environment variables
// taking precedence over the file.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	path, err := l.resolvePath()
	if err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	setViperDefaults(v, defaults)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg to the loader's configured path as indented JSON,
// creating parent directories as needed.
func (l *Loader) Save(cfg *Config) error {
	path, err := l.resolvePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := os.WriteFile(path, []byte(cfg.String()+"\n"), 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}

	return nil
}

// GetConfigPath returns the resolved path Load/Save operate against.
func (l *Loader) GetConfigPath() string {
	path, err := l.resolvePath()
	if err != nil {
		return l.configPath
	}
	return path
}

func (l *Loader) resolvePath() (string, error) {
	if l.configPath != "" {
		return expandHome(l.configPath)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".runtime", "runtime.json"), nil
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

func setViperDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("agent_id", cfg.AgentID)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.console", cfg.Logging.Console)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)
	v.SetDefault("logging.max_size", cfg.Logging.MaxSize)
	v.SetDefault("logging.max_age", cfg.Logging.MaxAge)
	v.SetDefault("logging.compress", cfg.Logging.Compress)
	v.SetDefault("logging.redaction", cfg.Logging.Redaction)
	v.SetDefault("gateway.enabled", cfg.Gateway.Enabled)
	v.SetDefault("gateway.port", cfg.Gateway.Port)
	v.SetDefault("gateway.host", cfg.Gateway.Host)
	v.SetDefault("webhook.enabled", cfg.Webhook.Enabled)
	v.SetDefault("webhook.port", cfg.Webhook.Port)
	v.SetDefault("webhook.host", cfg.Webhook.Host)
	v.SetDefault("webhook.timeout_seconds", cfg.Webhook.TimeoutSeconds)
	v.SetDefault("webhook.max_requests_per_minute", cfg.Webhook.MaxRequestsPerMin)
	v.SetDefault("plugins.dir", cfg.Plugins.Dir)
	v.SetDefault("hooks.enabled", cfg.Hooks.Enabled)
	v.SetDefault("snapshot.enabled", cfg.Snapshot.Enabled)
	v.SetDefault("snapshot.dir", cfg.Snapshot.Dir)
	v.SetDefault("snapshot.interval_seconds", cfg.Snapshot.IntervalSeconds)
	v.SetDefault("action.strict_validation", cfg.Action.StrictValidation)
}

// Load is a package-level convenience wrapping NewLoader(configPath).Load().
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
