package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/gamerec-backend/internal/data/db"
	"github.com/yungbote/gamerec-backend/internal/data/graph"
	"github.com/yungbote/gamerec-backend/internal/data/repos"
	"github.com/yungbote/gamerec-backend/internal/observability"
	"github.com/yungbote/gamerec-backend/internal/platform/dbctx"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

const catalogSyncPageSize = 500

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Repos    repos.Set
	Services Services
	Metrics  *observability.Metrics

	cancel       context.CancelFunc
	shutdownOTel func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	pg, err := db.NewPostgresService(log, cfg.Postgres)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := db.AutoMigrateAll(pg.DB()); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	metrics := observability.NewMetrics()
	clients, err := wireClients(log, cfg, metrics)
	if err != nil {
		log.Sync()
		return nil, err
	}
	graph.EnsureSchema(context.Background(), clients.Graph, log)

	shutdownOTel := observability.InitOTel(context.Background(), log, cfg.Otel)

	reposet := repos.NewSet(theDB, log)
	serviceset := wireServices(log, cfg, clients, reposet, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		shutdownOTel: shutdownOTel,
	}, nil
}

// Start launches the background workers: retention sweeper and metrics endpoint.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.Sweeper != nil {
		a.Services.Sweeper.Start(ctx)
	}
	go func() {
		if err := a.Metrics.Serve(ctx, a.Cfg.MetricsAddr, a.Log); err != nil {
			a.Log.Error("metrics endpoint stopped", "error", err)
		}
	}()
}

// SyncGraphCatalog pushes the active catalog to the graph store page by page.
func (a *App) SyncGraphCatalog(ctx context.Context) (int, error) {
	if a == nil || a.Clients.Graph == nil {
		return 0, errors.New("graph store not configured")
	}
	var (
		after int64
		total int
	)
	for {
		page, err := a.Repos.Game.ListActiveAfter(dbctx.New(ctx), after, catalogSyncPageSize)
		if err != nil {
			return total, fmt.Errorf("list catalog: %w", err)
		}
		if len(page) == 0 {
			break
		}
		if err := graph.UpsertGameCatalog(ctx, a.Clients.Graph, a.Log, page); err != nil {
			return total, fmt.Errorf("upsert catalog page after %d: %w", after, err)
		}
		total += len(page)
		a.Metrics.GraphGamesSynced(len(page))
		after = page[len(page)-1].ID
		if len(page) < catalogSyncPageSize {
			break
		}
	}
	a.Log.Info("Graph catalog synced", "games", total)
	return total, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.shutdownOTel != nil {
		_ = a.shutdownOTel(context.Background())
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
