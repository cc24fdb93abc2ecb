// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friendgraph/internal/auth"
	"github.com/jason-s-yu/friendgraph/internal/config"
	"github.com/jason-s-yu/friendgraph/internal/database"
	"github.com/jason-s-yu/friendgraph/internal/friends"
	"github.com/jason-s-yu/friendgraph/internal/graph"
	"github.com/jason-s-yu/friendgraph/internal/handlers"
	"github.com/jason-s-yu/friendgraph/internal/queue"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-h" || arg == "--help" {
			fmt.Println(config.Usage())
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	if err := run(cfg, logger); err != nil {
		logger.Fatal(err)
	}
}

// run returns instead of exiting so deferred pool and client closes always run.
func run(cfg *config.Config, logger *logrus.Logger) error {
	if err := initAuth(cfg.Auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc := handlers.RouterConfig{
		Logger:        logger,
		LookupTimeout: cfg.LookupTimeout,
	}
	if cfg.IsProduction() {
		rc.AllowedOrigins = cfg.AllowedOrigins
	}

	switch cfg.Store.Driver {
	case config.DriverMemory:
		fixture, err := graph.ReadFixtureFile(cfg.Store.Fixture)
		if err != nil {
			return fmt.Errorf("memory store: %w", err)
		}
		g := graph.New()
		if err := g.Load(fixture); err != nil {
			return fmt.Errorf("memory store: %w", err)
		}
		rc.Lookup = friends.NewLookup(g, logger)
		logger.WithFields(logrus.Fields{
			"users":       len(fixture.Users),
			"friendships": len(fixture.Friendships),
		}).Info("loaded memory store")

	default:
		pool, err := database.ConnectDB(ctx, cfg.Store, logger)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		rc.Lookup = friends.NewLookup(database.NewFriendStore(pool), logger)
		rc.Users = database.NewUserStore(pool)
	}

	if cfg.Redis.Addr != "" {
		rdb, err := queue.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		rc.Views = queue.NewViewPublisher(rdb, cfg.Redis.ViewQueue)
	} else {
		logger.Info("REDIS_ADDR not set, profile-view events disabled")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.NewRouter(rc),
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", server.Addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("terminating")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// initAuth loads persistent signing keys when configured, otherwise generates a
// per-process pair.
func initAuth(cfg config.AuthConfig) error {
	if cfg.HasKeyFiles() {
		return auth.InitFromPath(cfg.KeyPath, cfg.PubKeyPath, cfg.TokenExpire)
	}
	return auth.Init(cfg.TokenExpire)
}
