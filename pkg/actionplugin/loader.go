package actionplugin

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-plugin"
	"github.com/rs/zerolog"

	"github.com/jido/runtime/pkg/action"
)

// Loaded is a spawned action plugin process and the Actions it hands
// out, kept around only so Close can tear the process down.
type Loaded struct {
	ID      string
	Actions map[string]action.Action

	client *plugin.Client
}

// Close kills the plugin process.
func (l *Loaded) Close() {
	l.client.Kill()
}

// Loader spawns action plugin executables and wraps their declared
// actions as action.Action, grounded on the teacher's PluginLoader.
type Loader struct {
	logger zerolog.Logger

	mu      sync.Mutex
	loaded  map[string]*Loaded
}

// NewLoader creates a Loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger: logger.With().Str("component", "action-plugin-loader").Logger(),
		loaded: make(map[string]*Loaded),
	}
}

// Load spawns the executable named by the manifest found at
// manifestPath (resolved relative to pluginDir) and returns its
// declared Actions keyed by name.
func (l *Loader) Load(pluginDir, manifestPath string) (*Loaded, error) {
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	binPath := filepath.Join(pluginDir, manifest.Main)
	if _, err := os.Stat(binPath); err != nil {
		return nil, fmt.Errorf("plugin executable not found: %s", binPath)
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  Handshake,
		Plugins:          PluginMap,
		Cmd:              exec.Command(binPath),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("connect to plugin: %w", err)
	}

	raw, err := rpcClient.Dispense("action")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense plugin: %w", err)
	}

	remote, ok := raw.(RemotePlugin)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("unexpected plugin type for %s", manifest.ID)
	}

	actions := make(map[string]action.Action, len(manifest.Actions))
	for _, descriptor := range manifest.Actions {
		actions[descriptor.Name] = newRemoteAction(descriptor.Name, remote)
	}

	loaded := &Loaded{ID: manifest.ID, Actions: actions, client: client}

	l.mu.Lock()
	l.loaded[manifest.ID] = loaded
	l.mu.Unlock()

	l.logger.Info().Str("id", manifest.ID).Str("version", manifest.Version).Int("actions", len(actions)).Msg("action plugin loaded")

	return loaded, nil
}

// Unload kills the named plugin's process, if loaded.
func (l *Loader) Unload(pluginID string) error {
	l.mu.Lock()
	loaded, ok := l.loaded[pluginID]
	delete(l.loaded, pluginID)
	l.mu.Unlock()

	if !ok {
		return fmt.Errorf("plugin not loaded: %s", pluginID)
	}
	loaded.Close()
	l.logger.Info().Str("id", pluginID).Msg("action plugin unloaded")
	return nil
}

// Get returns the Loaded record for pluginID, if present.
func (l *Loader) Get(pluginID string) (*Loaded, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	loaded, ok := l.loaded[pluginID]
	return loaded, ok
}
