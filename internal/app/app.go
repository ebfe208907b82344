package app

import (
	"context"
	"fmt"
	"os"

	"github.com/noteflow/noteflow-backend/internal/config"
	"github.com/noteflow/noteflow-backend/internal/data/db"
	noteflowhttp "github.com/noteflow/noteflow-backend/internal/http"
	"github.com/noteflow/noteflow-backend/internal/observability"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	Mongo    *db.MongoService
	Repos    Repos
	Services Services

	server       *noteflowhttp.Server
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Server.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "noteflow-backend",
		Environment: cfg.Server.Mode,
	})

	log.Info("Connecting to MongoDB...")
	mongoSvc, err := db.NewMongoService(ctx, cfg.Mongo.URI, cfg.Mongo.Database, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init mongo: %w", err)
	}
	if err := mongoSvc.EnsureIndexes(ctx); err != nil {
		log.Sync()
		return nil, fmt.Errorf("ensure mongo indexes: %w", err)
	}

	reposet := wireRepos(mongoSvc.DB(), log)

	serviceset, err := wireServices(log, cfg, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, cfg, serviceset, reposet)
	middleware := wireMiddleware(log, cfg, serviceset, reposet)
	server := wireServer(log, cfg, handlerset, middleware)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Mongo:        mongoSvc,
		Repos:        reposet,
		Services:     serviceset,
		server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Mongo != nil {
		if err := a.Mongo.Close(ctx); err != nil {
			a.Log.Warn("Mongo close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
