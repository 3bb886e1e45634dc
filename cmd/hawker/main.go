package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hawker-app/hawker/internal/api"
	"github.com/hawker-app/hawker/internal/bus"
	"github.com/hawker-app/hawker/internal/catalog"
	"github.com/hawker-app/hawker/internal/config"
	"github.com/hawker-app/hawker/internal/dedup"
	"github.com/hawker-app/hawker/internal/dom"
	"github.com/hawker-app/hawker/internal/health"
	"github.com/hawker-app/hawker/internal/pipeline"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("hawker starting", "port", cfg.Port, "platform", cfg.Platform)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	store, err := catalog.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("database connected")

	// Catalog
	if cfg.MerchantID == "" {
		slog.Error("HAWKER_MERCHANT_ID is required")
		os.Exit(1)
	}
	products, err := store.LoadProducts(ctx, cfg.MerchantID)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	matcher := catalog.NewMatcher(catalog.NewIndex(products), catalog.MatcherConfig{
		AutoAcceptThreshold: cfg.AutoAcceptThreshold,
		ConfirmFloor:        cfg.ConfirmFloor,
	}, slog.Default())
	slog.Info("catalog loaded", "merchant", cfg.MerchantID, "products", len(products))

	// NATS
	busClient, err := bus.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer busClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Dedup cache
	cache, err := dedup.New(cfg.DedupCapacity)
	if err != nil {
		slog.Error("failed to build dedup cache", "error", err)
		os.Exit(1)
	}

	// Session — the main pipeline
	machine := health.NewMachine(cfg.HeartbeatFailures)
	session := pipeline.NewSession(
		cfg.MerchantID,
		dom.NewEngine(dom.SelectorsFor(dom.Platform(cfg.Platform)), slog.Default()),
		cache,
		matcher,
		machine,
		busClient,
		cfg.DispatchWebhookURL,
		slog.Default(),
	)

	// Health monitor
	monitor := health.NewMonitor(
		cfg.Platform,
		machine,
		session,
		session,
		busClient,
		time.Duration(cfg.HeartbeatSeconds)*time.Second,
		slog.Default(),
	)
	monitor.Start()

	// Subscribe to captured snapshots
	if err := busClient.Subscribe(bus.SubjectSnapshotCaptured, session.HandleSnapshot); err != nil {
		slog.Error("failed to subscribe to snapshot events", "error", err)
		os.Exit(1)
	}

	// HTTP API
	loader := &catalogLoader{ctx: ctx, store: store, merchantID: cfg.MerchantID}
	srv := api.NewServer(cfg.Port, session, matcher, loader, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if err := busClient.Publish(bus.SubjectAgentRegistered, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
		"session":   session.ID().String(),
		"platform":  cfg.Platform,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("hawker ready", "port", cfg.Port, "session", session.ID())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	monitor.Stop()
	cancel()
	slog.Info("hawker stopped")
}

// catalogLoader adapts the pgx-backed store to the API's reload hook.
type catalogLoader struct {
	ctx        context.Context
	store      *catalog.Store
	merchantID string
}

func (l *catalogLoader) Load() ([]catalog.Product, error) {
	ctx, cancel := context.WithTimeout(l.ctx, 10*time.Second)
	defer cancel()
	return l.store.LoadProducts(ctx, l.merchantID)
}

func setupLogging(level string) {
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
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
