package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/costwatch/costwatch/api"
	"github.com/costwatch/costwatch/internal/collector"
	"github.com/costwatch/costwatch/internal/events"
	"github.com/costwatch/costwatch/internal/logger"
	"github.com/costwatch/costwatch/internal/metrics"
	"github.com/costwatch/costwatch/internal/monitor"
	"github.com/costwatch/costwatch/internal/runtime"
	"github.com/costwatch/costwatch/internal/security"
	"github.com/costwatch/costwatch/internal/store"
	"github.com/costwatch/costwatch/internal/waste"
	"github.com/costwatch/costwatch/pkg/config"
	"github.com/costwatch/costwatch/pkg/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations")
	once := flag.Bool("once", false, "run a single monitoring cycle and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	var timeSeries store.TimeSeriesStore
	switch cfg.Store.Backend {
	case "memory":
		if *migrate {
			return fmt.Errorf("store.backend memory has no migrations to run")
		}
		logger.Info("Using in-memory store, history is lost on restart")
		timeSeries = store.NewMemoryStore()
	default:
		db, err := database.New(cfg.Database.ToDBConfig())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		logger.Info("Database connection established")

		if *migrate {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			logger.Info("Running database migrations")
			migrator := database.NewMigrator(db)
			if err := migrator.Run(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info("Migrations completed successfully")
			return nil
		}

		timeSeries = store.NewPostgresStore(db)
	}

	rt := runtime.NewResilientRuntime(runtime.ResilientRuntimeConfig{
		Runtime: runtime.NewHTTPRuntime(runtime.HTTPRuntimeConfig{
			Endpoint: cfg.Runtime.Endpoint,
			Timeout:  cfg.Runtime.Timeout,
		}),
		MaxFailures:   cfg.Runtime.CircuitBreaker.MaxFailures,
		Timeout:       cfg.Runtime.CircuitBreaker.Timeout,
		RetryAttempts: cfg.Runtime.RetryAttempts,
		RetryDelay:    cfg.Runtime.RetryDelay,
	})
	defer rt.Close()

	eventBus := events.NewEventBus(cfg.Events.BufferSize)
	defer eventBus.Close()

	eventLogger := events.NewEventLogger(timeSeries, eventBus.SubscribeAll())
	eventLogger.Start()
	defer eventLogger.Stop()

	var alertSink monitor.AlertSink = monitor.LogSink{}
	if cfg.Alert.WebhookURL != "" {
		alertSink = monitor.NewWebhookSink(cfg.Alert)
	}

	pipelineMetrics := metrics.New()

	scheduler := monitor.NewScheduler(monitor.SchedulerConfig{
		Runtime:   rt,
		Collector: collector.New(),
		Waste:     waste.NewCalculator(cfg.Pricing, cfg.Waste),
		Security:  security.NewEvaluator(cfg.Security),
		Store:     timeSeries,
		Publisher: events.NewPublisher(eventBus),
		Metrics:   pipelineMetrics,
		AlertSink: alertSink,
		Monitor:   cfg.Monitor,
		Retention: cfg.Store,
	})

	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Monitor.Interval)
		defer cancel()

		results, err := scheduler.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("monitoring cycle failed: %w", err)
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Stop()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	var server *api.Server
	if cfg.API.Enabled {
		server = api.NewServer(cfg.API, api.Deps{
			Store:   timeSeries,
			Runtime: rt,
			Runner:  scheduler,
			Metrics: pipelineMetrics,
			Events:  eventBus.SubscribeAll(),
			Mode:    cfg.App.Mode,
		})

		go func() {
			logger.Infof("API server listening on port %d", cfg.API.Port)
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()
	}

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("Stopped gracefully")
	return nil
}
