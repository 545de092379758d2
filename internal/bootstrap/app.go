package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"mturk-tools/internal/archive"
	"mturk-tools/internal/services/health"
	"mturk-tools/internal/shared/config"
	"mturk-tools/internal/shared/server"
	"mturk-tools/internal/shared/storage/db"
	"mturk-tools/internal/shared/storage/object"
	localstore "mturk-tools/internal/shared/storage/object/local"
	s3store "mturk-tools/internal/shared/storage/object/s3"
	"mturk-tools/internal/shared/telemetry"
)

// Mode picks pool sizing and whether the HTTP router is built.
type Mode int

const (
	ModeCLI Mode = iota
	ModeServer
)

// App holds shared dependencies.
type App struct {
	Config  config.Config
	DB      *sql.DB
	Store   object.Store
	Repo    archive.Repo
	Archive *archive.Service
	Health  *health.Service
	Router  *gin.Engine
}

// Build connects storage and wires the archive. Without DATABASE_URL the
// archive lives in memory outside production.
func Build(ctx context.Context, cfg config.Config, mode Mode) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg, mode)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = closeDB(sqlDB)
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		_ = closeDB(sqlDB)
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	if sqlDB != nil {
		app.Repo = &archive.PGRepo{DB: sqlDB}
		app.Health = health.NewService(sqlDB)
	} else {
		app.Repo = archive.NewMemoryRepo()
		app.Health = health.NewService(nil)
	}
	app.Archive = &archive.Service{Repo: app.Repo, Store: store}

	if mode == ModeServer {
		app.Router = server.NewRouter(server.RouterDeps{
			Config:  cfg,
			Archive: archive.NewHandler(app.Repo),
			Health:  app.Health,
		})
	}
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return closeDB(a.DB)
}

func buildDB(ctx context.Context, cfg config.Config, mode Mode) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		telemetry.Info("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
		return nil, nil
	}

	defaults := db.DefaultCLIOptions()
	if mode == ModeServer {
		defaults = db.DefaultServerOptions()
	}
	return db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(defaults))
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, s3store.Options{
			Region:   cfg.AWSRegion,
			Profile:  cfg.AWSProfile,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "none":
		return nil, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func closeDB(sqlDB *sql.DB) error {
	if sqlDB == nil {
		return nil
	}
	return sqlDB.Close()
}
