// Package main is the entry point for the Veille Électrique night server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/VeilleElectrique/internal/engine"
	"github.com/MRamiBalles/VeilleElectrique/internal/events"
	"github.com/MRamiBalles/VeilleElectrique/internal/infra/storage"
	"github.com/MRamiBalles/VeilleElectrique/internal/network"
	"github.com/MRamiBalles/VeilleElectrique/internal/platform/config"
	"github.com/MRamiBalles/VeilleElectrique/internal/platform/logger"
	"github.com/MRamiBalles/VeilleElectrique/internal/platform/metrics"
	"github.com/MRamiBalles/VeilleElectrique/internal/platform/optimization"
	"github.com/MRamiBalles/VeilleElectrique/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("[VEILLE-SERVER] fatal: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("loading server config: %w", err)
	}

	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	appLogger.Info("Initializing 'Veille Électrique' authoritative server...")

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		return fmt.Errorf("loading tuning: %w", err)
	}
	if err := tuning.Validate(); err != nil {
		return fmt.Errorf("invalid tuning %s: %w", cfg.TuningPath, err)
	}

	profile, err := optimization.ForProfile(cfg.Profile)
	if err != nil {
		return err
	}
	collector := metrics.Get()
	advisor := optimization.NewAdvisor(collector, profile, appLogger)

	appLogger.Info(fmt.Sprintf("Opening %s storage...", cfg.StorageDriver))
	store, err := storage.Open(ctx, storage.Config{
		Driver:      cfg.StorageDriver,
		SQLitePath:  cfg.SQLitePath,
		PostgresDSN: cfg.PostgresDSN,
		MaxConns:    profile.DBMaxConns,
	})
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(
		storage.NewEventSink(store.Events, 5*time.Second),
		events.WithBuffer(profile.EventChannelBuffer),
		events.WithWriteObserver(collector),
		events.WithErrorHandler(func(e events.GameEvent, err error) {
			appLogger.Error(fmt.Sprintf("Failed to persist event %d (%s): %v", e.Sequence, e.Type, err))
		}),
	)
	// Flushes pending writes; runs before store.Close.
	defer eventLog.Close()

	appLogger.Info("Bootstrapping session...")
	sess, err := session.New(session.Options{
		ID:       cfg.SessionID,
		Engine:   tuning.EngineConfig(cfg.NightLength, engine.ClockEntropy(), nil),
		Log:      eventLog,
		Logger:   appLogger,
		Progress: store.Progress,
		Results:  store.Results,
		Observer: collector,
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if err := sess.Restore(ctx); err != nil {
		appLogger.Warn("Starting without saved progress: " + err.Error())
	}
	if cfg.Debug {
		sess.SetDebug(true)
	}

	ticker := engine.NewTicker(sess, appLogger, engine.TickerOptions{
		Interval: cfg.FrameInterval(),
		Observer: collector,
	})

	hub := network.NewHub(sess, appLogger, profile, collector)
	api := network.NewAPI(network.APIOptions{
		Session:  sess,
		Hub:      hub,
		Results:  store.Results,
		Recaps:   storage.NewReconstructor(store.Events),
		Upgrader: network.NewUpgrader(cfg.AllowedOrigins),
		Logger:   appLogger,
	})

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	mux.HandleFunc("/metrics", collector.Handler())
	mux.HandleFunc("/metrics/prometheus", collector.PrometheusHandler())
	mux.HandleFunc("/metrics/advice", advisor.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	hub.StartEventPoller(gctx, eventLog, 0)
	hub.StartSnapshotBroadcaster(gctx, cfg.BroadcastEvery)

	g.Go(func() error {
		ticker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		advisor.Start(gctx, cfg.AdviseEvery)
		return nil
	})

	g.Go(func() error {
		appLogger.Info("HTTP API & WS server listening on " + cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
