package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/amortization-engine/internal/cache"
	"github.com/segyhp/amortization-engine/internal/config"
	"github.com/segyhp/amortization-engine/internal/logging"
	"github.com/segyhp/amortization-engine/internal/repository"
	"github.com/segyhp/amortization-engine/internal/service"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// jobTimeout bounds one recalculation run.
const jobTimeout = 30 * time.Minute

type recalculator interface {
	RecalculateInterest(ctx context.Context, asOf time.Time) (int, error)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting recalculation scheduler", zap.String("spec", cfg.Scheduler.Spec))

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	scheduleService := service.NewScheduleService(
		repository.NewLoanRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewHolidayRepository(db),
		cache.NewRedisScheduleCache(redisClient, cfg.Redis.TTL),
		cfg,
		logger,
	)

	loc := cfg.GetSchedulerLocation()
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.Scheduler.Spec, recalculationJob(scheduleService, loc, logger)); err != nil {
		logger.Fatal("failed to schedule interest recalculation", zap.Error(err))
	}

	c.Start()
	logger.Info("scheduler started")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	logger.Info("scheduler stopped")
}

// recalculationJob reschedules active loans as of the current day in loc.
func recalculationJob(svc recalculator, loc *time.Location, logger *zap.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		now := time.Now().In(loc)
		asOf := utils.Date(now.Year(), now.Month(), now.Day())
		updated, err := svc.RecalculateInterest(ctx, asOf)
		if err != nil {
			logger.Error("interest recalculation finished with errors",
				zap.String("as_of", utils.FormatDate(asOf)),
				zap.Int("updated", updated),
				zap.Error(err),
			)
			return
		}
		logger.Info("interest recalculation done", zap.String("as_of", utils.FormatDate(asOf)), zap.Int("updated", updated))
	}
}
