package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"teambuilder-backend/internal/catalog"
	"teambuilder-backend/internal/services/health"
	"teambuilder-backend/internal/sessions"
	"teambuilder-backend/internal/shared/config"
	"teambuilder-backend/internal/shared/server"
	"teambuilder-backend/internal/shared/server/middleware"
	"teambuilder-backend/internal/shared/storage/db"
	"teambuilder-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	CatalogRepo     catalog.Repo
	SessionsRepo    sessions.Repo
	SessionsService *sessions.Service
	CatalogHandler  *catalog.Handler
	SessionsHandler *sessions.Handler
	Health          *health.Service
	Limiter         *middleware.RateLimiter

	scheduler *cron.Cron
}

const limiterIdle = 15 * time.Minute

// Build prepares dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Health:  health.NewService(sqlDB),
		Limiter: middleware.NewRateLimiter(nil),
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		CatalogHandler: app.CatalogHandler,
		SessionHandler: app.SessionsHandler,
		Health:         app.Health,
		Limiter:        app.Limiter,
	})
	app.scheduler = startLimiterPrune(cfg.LimiterPruneSchedule, app.Limiter)
	return app, nil
}

// Close stops background work and releases the database pool, if any.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.scheduler != nil {
		<-a.scheduler.Stop().Done()
	}
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// startLimiterPrune drops idle rate-limit buckets on a 5-field cron schedule.
// An empty or invalid schedule disables pruning.
func startLimiterPrune(schedule string, limiter *middleware.RateLimiter) *cron.Cron {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))
	_, err := c.AddFunc(schedule, func() {
		if n := limiter.Prune(limiterIdle); n > 0 {
			telemetry.Info("rate_limit.pruned", map[string]any{"buckets": n})
		}
	})
	if err != nil {
		telemetry.Warn("rate_limit.prune_disabled", map[string]any{"schedule": schedule, "error": err.Error()})
		return nil
	}
	c.Start()
	return c
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildCatalog(app *App) (catalog.Repo, error) {
	if app.DB != nil {
		return &catalog.PGRepo{DB: app.DB}, nil
	}
	if path := strings.TrimSpace(app.Config.CatalogFixture); path != "" {
		return catalog.LoadFixture(path)
	}
	return catalog.DefaultFixture()
}

func buildServices(app *App) error {
	catalogRepo, err := buildCatalog(app)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	var sessionsRepo sessions.Repo
	if app.DB != nil {
		sessionsRepo = &sessions.PGRepo{DB: app.DB}
	} else {
		sessionsRepo = sessions.NewMemoryRepo()
	}

	svc := sessions.NewService(sessionsRepo, catalogRepo)
	if app.Config.SuggestionsPageSize > 0 {
		svc.DefaultPageSize = app.Config.SuggestionsPageSize
	}
	if app.Config.SuggestionsMaxPageSize > 0 {
		svc.MaxPageSize = app.Config.SuggestionsMaxPageSize
	}

	app.CatalogRepo = catalogRepo
	app.SessionsRepo = sessionsRepo
	app.SessionsService = svc
	app.CatalogHandler = catalog.NewHandler(catalogRepo)
	app.SessionsHandler = sessions.NewHandler(svc)

	if app.CatalogHandler == nil || app.SessionsHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}
