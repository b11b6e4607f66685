// ClassTask Core serves the student/teacher task management API.
// Students own their tasks; teachers additionally see the tasks of
// students assigned to them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/classtask/classtask-core/migrations"

	"github.com/classtask/classtask-core/internal/api"
	"github.com/classtask/classtask-core/internal/auth"
	"github.com/classtask/classtask-core/internal/infrastructure/config"
	"github.com/classtask/classtask-core/internal/infrastructure/database"
	"github.com/classtask/classtask-core/internal/infrastructure/logging"
	"github.com/classtask/classtask-core/internal/task"
)

// Set at build time:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run holds the startup sequence so main stays a thin exit-code shim and
// tests can drive the whole process with a cancellable context.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting classtask", "version", version, "commit", commit, "build_date", date)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "log_level", cfg.Logging.Level)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("closing database", "error", err)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied")

	users := auth.NewUserRepository(db.DB)
	tasks := task.NewRepository(db.DB)
	authService := auth.NewService(users, cfg.Security.JWT.Secret, cfg.GetAccessTokenTTL())
	resolver := task.NewResolver(tasks, users)

	server, err := api.New(api.Deps{
		Config:   cfg,
		Logger:   log,
		Auth:     authService,
		Tasks:    tasks,
		Resolver: resolver,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.Error("closing API server", "error", err)
		}
	}()
	log.Info("API server listening", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	if err := healthCheck(ctx, db, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("startup complete")
	<-ctx.Done()
	log.Info("shutting down")

	// Deferred closes run server first, then the database.
	return nil
}

// getConfigPath prefers the CLASSTASK_CONFIG environment variable over the
// built-in default.
func getConfigPath() string {
	if path := os.Getenv("CLASSTASK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func healthCheck(ctx context.Context, db *database.DB, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
