package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/config"
	"github.com/dheerajsingh9334/mern-Blog/internal/infrastructure/database"
	"github.com/dheerajsingh9334/mern-Blog/internal/infrastructure/lock"
	"github.com/dheerajsingh9334/mern-Blog/internal/usecase"
	"github.com/dheerajsingh9334/mern-Blog/pkg/logger"
)

func main() {
	catalogPath := flag.String("file", "configs/plans.yaml", "plan catalog to seed")
	dryRun := flag.Bool("dry-run", false, "validate the catalog without writing")
	flag.Parse()

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
	defer zapLogger.Sync()

	specs, err := loadCatalog(*catalogPath, cfg.Service.Currency)
	if err != nil {
		zapLogger.Fatal("Failed to load plan catalog", zap.String("path", *catalogPath), zap.Error(err))
	}
	zapLogger.Info("Plan catalog loaded", zap.String("path", *catalogPath), zap.Int("plans", len(specs)))
	if *dryRun {
		return
	}

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

	// Run migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)

	// Seeding runs alone, so a process-local lock is enough
	locker := lock.NewLocalLocker(cfg.Service.Lock.Timeout)
	plans := usecase.NewPlanService(repos.Plan, repos.Transactor, locker, cfg.Service.Currency, zapLogger.Named("plans"))

	ctx := context.Background()

	active, err := plans.ListActivePlans(ctx)
	if err != nil {
		zapLogger.Fatal("Failed to list active plans", zap.Error(err))
	}

	created, skipped := 0, 0
	for _, spec := range specs {
		if alreadySeeded(spec, active) {
			skipped++
			continue
		}

		plan, err := plans.CreatePlan(ctx, spec)
		if err != nil {
			zapLogger.Error("Failed to create plan",
				zap.String("author_id", spec.AuthorID),
				zap.String("name", spec.Name),
				zap.Error(err))
			continue
		}
		active = append(active, plan)
		created++
	}

	zapLogger.Info("Plan seeding completed",
		zap.Int("created", created),
		zap.Int("skipped", skipped))
}
