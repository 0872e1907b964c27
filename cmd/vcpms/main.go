package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/vcpms/internal/portfolio/auth"
	"github.com/gartstein/vcpms/internal/portfolio/config"
	"github.com/gartstein/vcpms/internal/portfolio/controller"
	"github.com/gartstein/vcpms/internal/portfolio/db"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/handlers"
	"github.com/gartstein/vcpms/internal/portfolio/session"
	"github.com/gartstein/vcpms/internal/portfolio/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	repo, err := connectDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	producer, closeProducer := initProducer(cfg, logger)
	defer closeProducer()

	sessions := session.NewManager(initSessionStore(cfg, logger), logger)
	files := storage.NewLocalFileStorage(cfg.MediaRoot)

	svc := handlers.Services{
		Companies:   controller.NewCompanyService(repo, files, producer, logger),
		Individuals: controller.NewIndividualService(repo, files, producer, logger),
		Founders:    controller.NewFounderService(repo, producer, logger),
		Investments: controller.NewInvestmentService(repo, producer, logger),
		Documents:   controller.NewDocumentService(repo, files, producer, logger),
		Programmes:  controller.NewProgrammeService(repo, files, producer, logger),
		Accounts:    controller.NewAccountService(repo, files, sessions, cfg.JWTSecret, cfg.SessionTTL, producer, logger),
		Admin:       controller.NewAdminService(repo, producer, logger, cfg.AdminPageSize),
		Dashboard:   controller.NewDashboardService(repo, sessions, logger),
	}
	mw := auth.NewMiddleware(cfg.JWTSecret, sessions, repo, logger)

	server := handlers.NewServer(cfg.HTTPPort, logger)
	server.RegisterHandler(handlers.NewHandler(svc, mw, logger))

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	logger.Info("HTTP server started", zap.Int("port", cfg.HTTPPort))

	waitForShutdown(server, logger)
}

// connectDatabase retries while the database comes up, then migrates.
func connectDatabase(cfg *config.Config, logger *zap.Logger) (*db.Repository, error) {
	var repo *db.Repository
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	err := backoff.RetryNotify(func() error {
		var err error
		repo, err = db.NewRepository(cfg.Database())
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("database not ready", zap.Error(err), zap.Duration("retry_in", wait))
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// initProducer returns a Kafka producer, or one that drops events when no
// brokers are configured.
func initProducer(cfg *config.Config, logger *zap.Logger) (events.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("no Kafka brokers configured, lifecycle events are dropped")
		return events.NopProducer{}, func() {}
	}
	producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	return producer, producer.Close
}

// initSessionStore uses Redis when it answers and falls back to process
// memory otherwise.
func initSessionStore(cfg *config.Config, logger *zap.Logger) session.Store {
	if cfg.RedisAddress == "" {
		logger.Warn("no Redis address configured, sessions are kept in memory")
		return session.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
	})
	err := backoff.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3))
	if err != nil {
		logger.Warn("Redis unavailable, sessions are kept in memory", zap.Error(err))
		_ = client.Close()
		return session.NewMemoryStore()
	}
	return session.NewRedisStore(client, cfg.SessionTTL)
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then
// stops the server.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Server stopped properly")
}
