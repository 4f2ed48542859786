package runtimehost

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jido/runtime/pkg/action"
	"github.com/jido/runtime/pkg/actionplugin"
)

// loadPlugins scans pluginDir for one level of subdirectories, each
// expected to hold a manifest.json describing one action plugin
// executable, and registers every action the manifest declares.
func loadPlugins(loader *actionplugin.Loader, registry *action.Registry, pluginDir string, zlog zerolog.Logger) error {
	if pluginDir == "" {
		return nil
	}

	entries, err := os.ReadDir(pluginDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read plugin dir %s: %w", pluginDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		manifestPath := filepath.Join(pluginDir, entry.Name(), "manifest.json")
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}

		loaded, err := loader.Load(filepath.Join(pluginDir, entry.Name()), manifestPath)
		if err != nil {
			zlog.Warn().Err(err).Str("plugin_dir", entry.Name()).Msg("failed to load action plugin")
			continue
		}

		for name, act := range loaded.Actions {
			if err := registry.Register(name, act); err != nil {
				zlog.Warn().Err(err).Str("action", name).Msg("failed to register plugin action")
			}
		}
	}

	return nil
}
