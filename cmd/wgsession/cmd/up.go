package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/plexsphere/wgsession/internal/agent"
	"github.com/plexsphere/wgsession/internal/bypass"
	"github.com/plexsphere/wgsession/internal/ctlapi"
	"github.com/plexsphere/wgsession/internal/metrics"
	"github.com/plexsphere/wgsession/internal/notify"
	"github.com/plexsphere/wgsession/internal/platform"
	"github.com/plexsphere/wgsession/internal/session"
	"github.com/plexsphere/wgsession/internal/wireguard"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the wgsession daemon",
	Long: "Start the wgsession daemon. It serves the control socket, runs lifecycle\n" +
		"requests one at a time and tears the tunnel down on SIGINT or SIGTERM.",
	RunE: runUp,
}

func init() {
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("wgsession up: %w", err)
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting wgsession",
		"version", buildVersion,
		"interface", cfg.WireGuard.InterfaceName,
		"socket", cfg.Ctl.SocketPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	readiness := platform.NewReadiness(logger)
	if err := readiness.Check(ctx); err != nil {
		logger.Warn("platform not ready, connect requests will be refused", "error", err)
	}

	backend := wireguard.NewManager(
		wireguard.NewNetlinkController(logger),
		bypass.NewNftablesExcluder(logger),
		cfg.WireGuard,
		logger,
	)
	registry := session.NewRegistry(cfg.WireGuard.InterfaceName)
	registry.Init(backend)
	defer registry.Shutdown()

	indicator, err := notify.NewIndicator(cfg.Notify, logger)
	if err != nil {
		return fmt.Errorf("wgsession up: %w", err)
	}
	broadcaster := notify.NewBroadcaster()
	defer broadcaster.Close()
	bridge := notify.NewBridge(indicator, broadcaster, logger)

	var sink session.TelemetrySink
	var metricsHandler http.Handler
	if cfg.Metrics.Prometheus {
		exporter := metrics.NewExporter()
		sink = exporter
		metricsHandler = exporter.Handler()
	}

	machine := session.NewMachine(registry, counterReader(cfg), bridge, sink, logger)
	mgr := session.NewManager(machine, readiness, cfg.Session, logger)

	disconnect := func() {
		if _, err := mgr.Stop(); err != nil {
			logger.Warn("disconnect action rejected", "error", err)
		}
	}
	bridge.Handle(notify.ActionDisconnect, disconnect)
	bridge.Handle(notify.ActionStop, disconnect)

	handler := ctlapi.NewHandler(mgr, broadcaster, bridge, metricsHandler, cfg.Ctl.KeepAlive, logger)
	srv := ctlapi.NewServer(cfg.Ctl, handler, logger)

	// Run exits by stopping the session, joining the sampler and then
	// cancelling the indicator.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(mgr.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(srv.Start(gctx)) })

	err = g.Wait()
	if err != nil {
		logger.Error("wgsession stopped with error", "error", err)
		return fmt.Errorf("wgsession up: %w", err)
	}
	logger.Info("wgsession stopped")
	return nil
}

// loadConfig parses the daemon config and applies CLI flag overrides.
// A missing file is tolerated unless --config was given explicitly.
func loadConfig(cmd *cobra.Command) (*agent.Config, error) {
	cfg, err := agent.ParseConfig(cfgFile, !cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if socketPath != "" {
		cfg.Ctl.SocketPath = socketPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// counterReader picks the counter source for the telemetry sampler.
func counterReader(cfg *agent.Config) metrics.CounterReader {
	if cfg.Metrics.CounterSource == metrics.SourceInterface {
		return metrics.NewInterfaceCounterReader(cfg.WireGuard.InterfaceName)
	}
	return metrics.NewSystemCounterReader()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// setupLogger creates a slog.Logger with the given level.
func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
