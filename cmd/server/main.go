package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/api"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/config"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/database"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/events"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/metrics"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/repository"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/service"
	"github.com/antenickawest-png/Scheduling-Board-v5/pkg/logger"
)

const dbStatsInterval = 15 * time.Second

func main() {
	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting schedule board server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if os.Getenv("ENV") != "development" {
		log = logger.NewWithWriter(os.Stdout, cfg.Log.Level, cfg.Log.Format == "pretty")
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	m := metrics.New()
	go reportDBStats(ctx, db, m)

	// Initialize repositories
	repos := repository.New(db)

	// Board events go to local websocket streams, and through Redis to the
	// other replicas when it is configured
	bus := events.NewBus()
	opts := service.Options{Bus: bus, Metrics: m}
	if cfg.Redis.URL != "" {
		rdb, err := events.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer rdb.Close()

		bridge := events.NewRedisBridge(rdb, cfg.Redis.Channel, bus, log)
		opts.Publisher = bridge
		go bridge.Run(ctx)
	}

	// Initialize services
	services := service.NewServices(repos, cfg, log, opts)

	// Start weekly snapshot job
	if err := services.Schedule.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start snapshot job")
	}

	// Initialize router
	router := api.NewRouter(services, cfg, log, api.RouterOptions{Metrics: m, Health: db})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop snapshot job and event relay
	services.Schedule.Stop()
	stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

func reportDBStats(ctx context.Context, db *database.DB, m *metrics.Metrics) {
	ticker := time.NewTicker(dbStatsInterval)
	defer ticker.Stop()
	for {
		m.UpdateDBStats(db.Stats())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
