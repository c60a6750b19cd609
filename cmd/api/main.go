package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"easydrive/internal/api"
	"easydrive/internal/config"
	"easydrive/internal/database"
	"easydrive/internal/domain"
	"easydrive/internal/events"
	"easydrive/internal/export"
	"easydrive/internal/logging"
	"easydrive/internal/metrics"
	"easydrive/internal/notify"
	"easydrive/internal/queue"
	"easydrive/internal/reservation"
	"easydrive/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer (func() { _ = queue.Close(redisClient) })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notificationQueue := buildNotificationQueue(cfg, redisClient, &logger)
	dispatcher := notify.NewDispatcher(&queue.Sink{Queue: notificationQueue}, &logger)
	bus := events.NewEventBus()

	svc := reservation.NewService(
		db, db, db, dispatcher, bus,
		cfg.Booking.MaxBookingDays, cfg.Booking.LockTimeout, &logger,
	)

	reconciler := reservation.NewReconciler(db, db, db, dispatcher, &logger)
	reconciler.Subscribe(bus)

	mailWorker := worker.NewMailWorker(
		notificationQueue,
		buildMailer(cfg, &logger),
		worker.RetryPolicy{MaxRetries: cfg.Notifications.MaxRetries},
		cfg.Notifications.PollInterval,
		&logger,
	)
	go mailWorker.Start(ctx)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	reports := export.NewService(db, db, cfg.Exports.Path, &logger)
	httpServer := api.NewHTTPServer(cfg.API, svc, db, db, bus, reports, &logger)

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if len(cfg.Cars) > 0 {
		if err := db.SeedCars(context.Background(), cfg.Cars); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := queue.NewRedisClient(cfg.Redis)
	if err := queue.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = queue.Close(redisClient)
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// buildNotificationQueue prefers redis with a memory failover; without redis
// the in-process queue carries everything and restarts drop pending mail.
func buildNotificationQueue(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) domain.NotificationQueue {
	memory := queue.NewMemoryQueue(0)
	if client == nil {
		logger.Warn().Msg("notification queue running in memory only")
		return memory
	}

	primary := queue.NewRedisQueue(client, cfg.Notifications.QueueKey, cfg.Notifications.DeadLetterKey)
	return queue.NewFailoverQueue(primary, memory, logger)
}

func buildMailer(cfg *config.Config, logger *zerolog.Logger) domain.Mailer {
	if cfg.Notifications.SMTPAddress == "" {
		logger.Warn().Msg("no smtp address configured, logging notifications instead")
		return worker.NewLogMailer(logger)
	}
	return worker.NewSMTPMailer(cfg.Notifications.SMTPAddress, cfg.Notifications.SenderAddress)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("reservation API started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("reservation API stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
