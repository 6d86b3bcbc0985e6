package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dheerajsingh9334/mern-Blog/internal/config"
	"github.com/dheerajsingh9334/mern-Blog/internal/infrastructure/database"
	grpcServer "github.com/dheerajsingh9334/mern-Blog/internal/infrastructure/grpc"
	httpServer "github.com/dheerajsingh9334/mern-Blog/internal/infrastructure/http"
	"github.com/dheerajsingh9334/mern-Blog/internal/infrastructure/lock"
	"github.com/dheerajsingh9334/mern-Blog/internal/infrastructure/provider"
	"github.com/dheerajsingh9334/mern-Blog/internal/usecase"
	"github.com/dheerajsingh9334/mern-Blog/internal/worker"
	"github.com/dheerajsingh9334/mern-Blog/pkg/logger"
	"github.com/dheerajsingh9334/mern-Blog/pkg/messaging"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthCheckInterval = 10 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	zapLogger = zapLogger.With(
		zap.String("service", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment),
	)
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis backs notifications and, optionally, the lock backend
	var redisClient *redis.Client
	publisher := messaging.NewNoopPublisher()
	if cfg.Redis.Enabled {
		redisClient, err = messaging.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		publisher = messaging.NewRedisClient(redisClient)
		zapLogger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		zapLogger.Info("Redis disabled, notifications are dropped")
	}
	defer publisher.Close()

	locker, err := lock.New(cfg.Service.Lock, redisClient, zapLogger.Named("lock"))
	if err != nil {
		zapLogger.Fatal("Failed to initialize locker", zap.Error(err))
	}

	providers, err := provider.NewFactory(&cfg.Service, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize payment provider", zap.Error(err))
	}

	// Use cases
	ledgerService := usecase.NewLedgerService(repos.Ledger, repos.Transactor, locker, cfg.Service.Currency, zapLogger.Named("ledger"))
	planService := usecase.NewPlanService(repos.Plan, repos.Transactor, locker, cfg.Service.Currency, zapLogger.Named("plans"))
	ingestService := usecase.NewIngestService(
		providers.EventSource(),
		repos.PaymentEvent,
		repos.Subscription,
		repos.Plan,
		repos.Transactor,
		ledgerService,
		locker,
		publisher,
		usecase.IngestConfig{
			MaxAttempts: cfg.Service.Replay.MaxAttempts,
			BatchSize:   cfg.Service.Replay.BatchSize,
		},
		zapLogger.Named("ingest"),
	)
	subscriptionService := usecase.NewSubscriptionService(
		repos.Subscription,
		repos.Plan,
		repos.Transactor,
		providers.Checkout(),
		locker,
		publisher,
		zapLogger.Named("subscriptions"),
	)
	payoutService := usecase.NewPayoutService(
		repos.Payout,
		repos.PayoutAccount,
		repos.Ledger,
		repos.Transactor,
		ledgerService,
		providers.Rail(),
		locker,
		publisher,
		usecase.PayoutConfig{
			MinimumAmount: cfg.Service.Payout.MinimumAmount,
			RailTimeout:   cfg.Service.Payout.RailTimeout,
		},
		zapLogger.Named("payouts"),
	)

	// Initialize servers
	grpcSrv := grpcServer.NewServer(cfg, zapLogger)
	httpSrv := httpServer.NewServer(cfg, zapLogger, httpServer.Services{
		Ingest:        ingestService,
		Plans:         planService,
		Subscriptions: subscriptionService,
		Ledger:        ledgerService,
		Payouts:       payoutService,
		Audit:         usecase.NewAuditService(repos.AuditLog, zapLogger.Named("audit")),
	})

	replayer := worker.NewReplayer(ingestService, cfg.Service.Replay.Interval, cfg.Service.Replay.BatchSize, zapLogger)
	go replayer.Start(ctx)
	go grpcSrv.Watch(ctx, healthCheckInterval, pingDatabase(db))

	// Start servers
	go func() {
		if err := grpcSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Shutdown servers
	if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Servers shut down successfully")
}

func pingDatabase(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
