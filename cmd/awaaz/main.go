// Command awaaz is the main entry point for the Awaaz voice relay server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awaaz-ai/awaaz/internal/config"
	"github.com/awaaz-ai/awaaz/internal/health"
	"github.com/awaaz-ai/awaaz/internal/httpserver"
	"github.com/awaaz-ai/awaaz/internal/observe"
	"github.com/awaaz-ai/awaaz/internal/relay"
	"github.com/awaaz-ai/awaaz/pkg/gate"
	"github.com/awaaz-ai/awaaz/pkg/provider/s2s/gemini"
	"github.com/awaaz-ai/awaaz/pkg/provider/vad"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "awaaz: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "awaaz: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("awaaz starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ─────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "awaaz",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── AI service provider ───────────────────────────────────────────────────
	var provOpts []gemini.Option
	if cfg.Gemini.Model != "" {
		provOpts = append(provOpts, gemini.WithModel(cfg.Gemini.Model))
	}
	if cfg.Gemini.BaseURL != "" {
		provOpts = append(provOpts, gemini.WithBaseURL(cfg.Gemini.BaseURL))
	}
	provider := gemini.New(cfg.Gemini.APIKey, provOpts...)

	// ── Speech gate ───────────────────────────────────────────────────────────
	speechGate := gate.New(vad.NewEnergyScorer(), gate.Config{
		EnergyCutoff:  cfg.Gate.EnergyCutoff,
		LowThreshold:  cfg.Gate.LowThreshold,
		HighThreshold: cfg.Gate.HighThreshold,
	})

	// ── HTTP server ───────────────────────────────────────────────────────────
	registry := relay.NewRegistry()
	healthHandler := health.New(health.Checker{
		Name: "gemini_api_key",
		Check: func(context.Context) error {
			if cfg.Gemini.APIKey == "" {
				return errors.New("gemini api key not configured")
			}
			return nil
		},
	})

	server := httpserver.New(httpserver.Deps{
		Cfg:      cfg,
		Provider: provider,
		Gate:     speechGate,
		Registry: registry,
		Metrics:  metrics,
		Health:   healthHandler,
		Log:      logger,
	})

	printStartupSummary(cfg)
	slog.Info("server ready — press Ctrl+C to shut down")

	if err := server.Run(ctx, shutdownTimeout); err != nil {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// newLogger builds the root slog logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// printStartupSummary logs the effective configuration highlights.
func printStartupSummary(cfg *config.Config) {
	modes := make([]string, 0, len(cfg.Modes))
	for _, m := range cfg.Modes {
		modes = append(modes, m.Name)
	}
	slog.Info("configuration summary",
		"modes", modes,
		"gate_enabled", cfg.GateEnabled(),
		"allow_interruptions", cfg.Relay.AllowInterruptions,
		"static_dir", cfg.Server.StaticDir,
		"tls", cfg.Server.TLS != nil,
	)
}
