package app

import (
	"context"
	"fmt"

	"github.com/gorilla/sessions"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/archive"
	"github.com/grvbrk/vidcatalog/internal/auth"
	"github.com/grvbrk/vidcatalog/internal/backup"
	"github.com/grvbrk/vidcatalog/internal/config"
	"github.com/grvbrk/vidcatalog/internal/handlers"
	"github.com/grvbrk/vidcatalog/internal/logger"
	"github.com/grvbrk/vidcatalog/internal/metadata"
	"github.com/grvbrk/vidcatalog/internal/middlewares"
	"github.com/grvbrk/vidcatalog/internal/services"
	"github.com/grvbrk/vidcatalog/internal/store"
	"github.com/grvbrk/vidcatalog/internal/webhooks"
	"github.com/grvbrk/vidcatalog/migrations"
)

type Application struct {
	Config            config.Config
	Logger            zerolog.Logger
	DB                *sqlx.DB
	RedisClient       *redis.Client
	SessionStore      sessions.Store
	Users             store.UserStore
	Catalog           *services.CatalogService
	Dispatcher        *webhooks.Dispatcher
	Backups           *backup.Manager
	Scheduler         *backup.Scheduler
	PasswordAuth      *auth.PasswordAuth
	MiddlewareHandler *middlewares.MiddlewareHandler
	VideoHandler      *handlers.VideoHandler
	AdminHandler      *handlers.AdminHandler
	DashboardHandler  *handlers.DashboardHandler
	BulkHandler       *handlers.BulkHandler
	ExportHandler     *handlers.ExportHandler
	BackupHandler     *handlers.BackupHandler
	MetadataHandler   *handlers.MetadataHandler
	UserHandler       *handlers.UserHandler
}

// NewApplication connects storage, runs migrations and wires every component.
// Callers own the returned Application and must Close it.
func NewApplication(ctx context.Context, cfg config.Config) (*Application, error) {
	log := logger.Base()

	db, err := store.Open(ctx, cfg, logger.WithComponent("store"))
	if err != nil {
		log.Error().Err(err).Msg("error connecting to db")
		return nil, err
	}

	if err := store.MigrateFS(db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("database migrated")

	app := &Application{Config: cfg, Logger: log, DB: db}

	var cache store.ExportCache = store.NopExportCache{}
	if cfg.RedisAddr != "" {
		client, err := store.ConnectRedis(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, public listing cache disabled")
		} else {
			app.RedisClient = client
			cache = store.NewRedisExportCache(client, cfg.APICacheTTL, logger.WithComponent("cache"))
		}
	}

	videoStore := store.NewSQLVideoStore(db)
	userStore := store.NewSQLUserStore(db)
	app.Users = userStore

	archiveFile := archive.NewFile(cfg.PublicArchivePath)
	app.Dispatcher = webhooks.NewDispatcher(videoStore, archiveFile, cache, logger.WithComponent("dispatcher"))

	extractor := metadata.NewExtractor(metadata.Config{
		YtDlpPath: cfg.YtDlpPath,
		Timeout:   cfg.ExtractTimeout,
	}, nil, nil, logger.WithComponent("metadata"))

	app.Catalog = services.NewCatalogService(videoStore, app.Dispatcher, services.Options{
		SyncAfterBulk: cfg.ArchiveSyncAfterBulk,
		Extractor:     extractor,
		Cache:         cache,
	}, logger.WithComponent("catalog"))

	if !cfg.ArchiveSyncAfterBulk {
		log.Warn().Msg("ARCHIVE_SYNC_AFTER_BULK=false: bulk import and bulk delete will not refresh the public archive")
	}

	app.Backups = backup.NewManager(db, cfg.BackupDir, cfg.BackupKeep, app.Dispatcher, logger.WithComponent("backup"))
	interval := cfg.BackupInterval
	if cfg.DBDriver != config.DriverSQLite {
		interval = 0
	}
	app.Scheduler = backup.NewScheduler(app.Backups, interval, logger.WithComponent("backup"))

	if err := auth.EnsureAdmin(ctx, userStore, cfg.AdminUsername, cfg.AdminPassword, logger.WithComponent("auth")); err != nil {
		app.Close()
		return nil, err
	}
	if cfg.UsingDefaultAdminPassword() {
		log.Warn().Str("username", cfg.AdminUsername).Msg("admin is using the default password, set ADMIN_PASSWORD")
	}

	sessionStore := auth.NewSessionStore(cfg)
	app.SessionStore = sessionStore
	app.PasswordAuth = auth.NewPasswordAuth(logger.WithComponent("auth"), sessionStore, userStore)
	app.MiddlewareHandler = middlewares.NewMiddlewareHandler(logger.WithComponent("http"), sessionStore, userStore, cfg.AllowedOrigins)

	handlerLogger := logger.WithComponent("handlers")
	app.VideoHandler = handlers.NewVideoHandler(app.Catalog, handlerLogger)
	app.AdminHandler = handlers.NewAdminHandler(app.Catalog, handlerLogger)
	app.DashboardHandler = handlers.NewDashboardHandler(app.Catalog, handlerLogger)
	app.BulkHandler = handlers.NewBulkHandler(app.Catalog, handlerLogger)
	app.ExportHandler = handlers.NewExportHandler(app.Catalog, handlerLogger)
	app.BackupHandler = handlers.NewBackupHandler(app.Backups, handlerLogger)
	app.MetadataHandler = handlers.NewMetadataHandler(extractor, handlerLogger)
	app.UserHandler = handlers.NewUserHandler(userStore, handlerLogger)

	return app, nil
}

func (a *Application) Close() {
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("error closing redis")
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("error closing db")
	}
}
