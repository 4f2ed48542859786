// Package runtimehost assembles the runtime package surface into a
// running process: it is the adapted, domain-rewired successor to the
// teacher's internal/daemon.Daemon, implementing internal/cli.Host so
// `runtimectl start` has something real to run.
package runtimehost

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jido/runtime/internal/config"
	"github.com/jido/runtime/internal/logger"
	"github.com/jido/runtime/internal/observability"
	"github.com/jido/runtime/internal/tracing"
	"github.com/jido/runtime/pkg/action"
	"github.com/jido/runtime/pkg/actionplugin"
	"github.com/jido/runtime/pkg/agentsnapshot"
	"github.com/jido/runtime/pkg/agentstate"
	"github.com/jido/runtime/pkg/chain"
	"github.com/jido/runtime/pkg/commandqueue"
	"github.com/jido/runtime/pkg/emitter"
	"github.com/jido/runtime/pkg/gatewaysource"
	"github.com/jido/runtime/pkg/hooks"
	"github.com/jido/runtime/pkg/node"
	"github.com/jido/runtime/pkg/runtime"
	"github.com/jido/runtime/pkg/signal"
	"github.com/jido/runtime/pkg/signalrouter"
	"github.com/jido/runtime/pkg/timersource"
	"github.com/jido/runtime/pkg/webhooksource"
	"github.com/jido/runtime/pkg/workflow"
)

// Host wires every pkg/ component for one runtime process and
// satisfies internal/cli.Host.
type Host struct{}

// New creates a Host.
func New() *Host {
	return &Host{}
}

// Run assembles the runtime from cfg and blocks until ctx is canceled
// or an unrecoverable startup error occurs.
func (h *Host) Run(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      expandHome(cfg.Logging.File),
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()
	zlog := log.GetZerolog()

	if err := tracing.InitOpenTelemetry("runtime-host"); err != nil {
		zlog.Warn().Err(err).Msg("tracing disabled: failed to init OpenTelemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.ShutdownOpenTelemetry(shutdownCtx)
	}()

	dataDir := expandHome(cfg.DataDir)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	observability.EnsureRegistered()
	if err := observability.InitAuditLogger(filepath.Join(dataDir, "audit.jsonl")); err != nil {
		zlog.Warn().Err(err).Msg("audit log disabled")
	}
	defer func() {
		if auditLogger := observability.GetAuditLogger(); auditLogger != nil {
			_ = auditLogger.Close()
		}
	}()

	registry := action.NewRegistry()
	ping, err := newPingAction(cfg.Action.StrictValidation)
	if err != nil {
		return fmt.Errorf("build ping action: %w", err)
	}
	if err := registry.Register("system.ping", ping); err != nil {
		return fmt.Errorf("register ping action: %w", err)
	}

	pluginLoader := actionplugin.NewLoader(zlog)
	if err := loadPlugins(pluginLoader, registry, expandHome(cfg.Plugins.Dir), zlog); err != nil {
		zlog.Warn().Err(err).Msg("action plugin discovery failed")
	}

	executor := workflow.NewExecutor(workflow.Config{
		Logger: zlog,
		OnTelemetry: func(ev workflow.TelemetryEvent) {
			switch ev.Type {
			case "complete", "error":
				observability.RecordActionExecution(ev.Action, ev.Duration, ev.Err)
				observability.RecordActionAudit(ctx, ev.Action, cfg.AgentID, auditStatus(ev.Err), nil)
			}
		},
	})

	runner := chain.NewRunner(registry.Lookup, executor)
	cmdFn := runner.CmdFunc()

	cq := commandqueue.New()

	var store *agentsnapshot.Store
	if cfg.Snapshot.Enabled {
		store, err = agentsnapshot.New(expandHome(cfg.Snapshot.Dir))
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
	}

	hookMgr, err := hooks.NewManager(toHooksConfig(cfg.Hooks, zlog))
	if err != nil {
		return fmt.Errorf("build hook manager: %w", err)
	}

	rootAgent := agentstate.New(cfg.AgentID)
	if store != nil {
		if err := store.Restore(rootAgent); err != nil {
			zlog.Warn().Err(err).Msg("no prior snapshot restored")
		}
	}

	rootEmitter := emitter.New(cfg.AgentID, zlog)
	hookMgr.Subscribe(rootEmitter, "hooks")

	serverFactory := func(childAgentID string, childConfig map[string]interface{}) (node.ChildServer, error) {
		childAgent := agentstate.New(childAgentID)
		childEmitter := emitter.New(childAgentID, zlog)
		hookMgr.Subscribe(childEmitter, "hooks")
		return runtime.NewServer(childAgentID, childAgent, childEmitter, cmdFn, runtime.WithLogger(zlog)), nil
	}
	tree := node.NewTree(cfg.AgentID, serverFactory, cq, zlog)

	server := runtime.NewServer(cfg.AgentID, rootAgent, rootEmitter, cmdFn,
		runtime.WithLogger(zlog),
		runtime.WithSpawnChild(tree.Spawn),
		runtime.WithStopChild(tree.Stop),
	)
	if err := server.Transition(runtime.StatusIdle); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	produce := func(sig signal.Signal) {
		if _, err := server.ProcessSignal(ctx, sig); err != nil {
			zlog.Error().Err(err).Str("signal", sig.Type()).Msg("signal processing failed")
			observability.RecordSignalDispatch(sig.Type(), 0, err)
		} else {
			observability.RecordSignalDispatch(sig.Type(), 0, nil)
		}
	}

	timers := timersource.New(produce, zlog)
	for _, t := range cfg.Timers {
		schedule := timersource.Schedule{
			Kind:    timersource.ScheduleKind(t.Kind),
			At:      t.At,
			EveryMs: t.EveryMs,
			Expr:    t.Expr,
			TZ:      t.TZ,
		}
		instr := []signal.Instruction{{Action: t.SignalType}}
		if err := timers.AddTimer(t.ID, cfg.AgentID, t.SignalType, instr, schedule); err != nil {
			zlog.Warn().Err(err).Str("timer", t.ID).Msg("failed to register timer")
		}
	}
	defer timers.Stop()

	router := signalrouter.New(cfg.AgentID, signalrouter.DefaultConfig())

	var wg sync.WaitGroup
	var servers []*http.Server

	if cfg.Webhook.Enabled {
		webhookMux := http.NewServeMux()
		wh := webhooksource.New(produce, cfg.Webhook.MaxRequestsPerMin, zlog)
		wh.Register(webhooksource.Endpoint{
			Path:       "/webhook",
			AgentID:    cfg.AgentID,
			SignalType: "webhook.received",
		})
		webhookMux.Handle("/webhook", wh)
		webhookMux.HandleFunc("/route", routeHandler(router, produce))
		webhookMux.Handle("/metrics", observability.MetricsHandler())

		srv := &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Webhook.Host, cfg.Webhook.Port),
			Handler: webhookMux,
		}
		servers = append(servers, srv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			zlog.Info().Str("addr", srv.Addr).Msg("webhook listener starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				zlog.Error().Err(err).Msg("webhook listener stopped")
			}
		}()
	}

	if cfg.Gateway.Enabled {
		gatewayMux := http.NewServeMux()
		gw := gatewaysource.New(cfg.Gateway.SharedSecret, produce, zlog)
		gatewayMux.Handle("/gateway", gw)

		srv := &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port),
			Handler: gatewayMux,
		}
		servers = append(servers, srv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			zlog.Info().Str("addr", srv.Addr).Msg("gateway listener starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				zlog.Error().Err(err).Msg("gateway listener stopped")
			}
		}()
	}

	zlog.Info().Str("agent_id", cfg.AgentID).Msg("runtime host started")
	<-ctx.Done()
	zlog.Info().Msg("runtime host shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		_ = srv.Shutdown(shutdownCtx)
	}
	wg.Wait()

	if store != nil {
		if err := store.Save(shutdownCtx, rootAgent); err != nil {
			zlog.Warn().Err(err).Msg("failed to persist final snapshot")
		}
	}

	return nil
}

func auditStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func toHooksConfig(cfg config.HooksConfig, zlog zerolog.Logger) hooks.Config {
	entries := make([]hooks.Hook, 0, len(cfg.Entries))
	for _, h := range cfg.Entries {
		entries = append(entries, hooks.Hook{
			ID:      h.ID,
			Event:   h.Event,
			Script:  h.Script,
			Timeout: time.Duration(h.TimeoutMs) * time.Millisecond,
			Enabled: h.Enabled,
		})
	}
	return hooks.Config{Enabled: cfg.Enabled, Hooks: entries, Logger: zlog}
}

func routeHandler(router *signalrouter.Router, produce func(signal.Signal)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body := make([]byte, 0, 4096)
		buf := make([]byte, 4096)
		for {
			n, err := r.Body.Read(buf)
			body = append(body, buf[:n]...)
			if err != nil {
				break
			}
		}

		sig, matched := router.Route(string(body))
		if !matched {
			http.Error(w, "no route matched", http.StatusUnprocessableEntity)
			return
		}

		produce(sig)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"accepted":true}`))
	}
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
