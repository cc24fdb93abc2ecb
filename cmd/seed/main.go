// cmd/seed applies the schema and loads a JSON fixture of users and friendships into
// PostgreSQL. Development tooling only; the service itself never writes edges.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friendgraph/internal/config"
	"github.com/jason-s-yu/friendgraph/internal/database"
	"github.com/jason-s-yu/friendgraph/internal/graph"
)

func main() {
	fixturePath := flag.String("fixture", "testdata/graph.json", "path to the JSON fixture")
	migrateOnly := flag.Bool("migrate-only", false, "apply the schema and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	if err := run(cfg, logger, *fixturePath, *migrateOnly); err != nil {
		logger.Fatal(err)
	}
}

func run(cfg *config.Config, logger *logrus.Logger, fixturePath string, migrateOnly bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.ConnectDB(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("schema applied")
	if migrateOnly {
		return nil
	}

	fixture, err := graph.ReadFixtureFile(fixturePath)
	if err != nil {
		return fmt.Errorf("fixture: %w", err)
	}
	if err := database.SeedFixture(ctx, pool, fixture); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"users":       len(fixture.Users),
		"friendships": len(fixture.Friendships),
	}).Info("fixture loaded")
	return nil
}
