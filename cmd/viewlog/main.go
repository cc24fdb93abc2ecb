// cmd/viewlog is an asynchronous service that pops profile-view records from a Redis
// queue and persists them to PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friendgraph/internal/config"
	"github.com/jason-s-yu/friendgraph/internal/database"
	"github.com/jason-s-yu/friendgraph/internal/queue"
	"github.com/jason-s-yu/friendgraph/internal/viewlog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()
	if cfg.Redis.Addr == "" {
		logger.Fatal("REDIS_ADDR is required")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal(err)
	}
	logger.Info("viewlog shutdown complete")
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.ConnectDB(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	rdb, err := queue.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	svc := viewlog.New(
		rdb,
		pool,
		cfg.Redis.ViewQueue,
		cfg.Redis.BatchSize,
		time.Duration(cfg.Redis.FlushDelay)*time.Millisecond,
		logger,
	)
	if err := svc.Run(ctx); err != nil {
		return fmt.Errorf("viewlog: %w", err)
	}
	return nil
}
