package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/cesarabia/talentflow-scheduling/internal/api/router"
	"github.com/cesarabia/talentflow-scheduling/internal/availability"
	appconfig "github.com/cesarabia/talentflow-scheduling/internal/config"
	"github.com/cesarabia/talentflow-scheduling/internal/observability/metrics"
	"github.com/cesarabia/talentflow-scheduling/internal/reservations"
	"github.com/cesarabia/talentflow-scheduling/internal/scheduling"
	"github.com/cesarabia/talentflow-scheduling/internal/slotblocks"
	"github.com/cesarabia/talentflow-scheduling/pkg/logging"
)

func main() {
	// Load .env in local development; ignore when absent.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting talentflow-scheduling API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// Stores
	reservationStore := reservations.NewPostgresStore(pool)
	availabilityStore := availability.NewStore(redisClient)
	blockStore := slotblocks.NewStore(pool)

	// Engine
	schedulingMetrics := metrics.NewSchedulingMetrics(nil)
	engine := scheduling.NewEngine(reservationStore, logger,
		scheduling.WithSuggestionLimit(cfg.SuggestionLimit),
		scheduling.WithSuggestionWindow(cfg.SuggestionWindowDays),
		scheduling.WithMetrics(schedulingMetrics),
	)

	// Handlers
	schedulingHandler := scheduling.NewHandler(engine, availabilityStore, logger)
	availabilityHandler := availability.NewHandler(availabilityStore, reservationStore, logger)
	blockHandler := slotblocks.NewHandler(blockStore, logger)

	var allowedOrigins []string
	if cfg.CORSAllowedOrigins != "" {
		allowedOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	}

	r := router.New(router.Config{
		Scheduling:     schedulingHandler,
		Availability:   availabilityHandler,
		SlotBlocks:     blockHandler,
		Logger:         logger,
		AllowedOrigins: allowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
