package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/grvbrk/vidcatalog/internal/config"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

const (
	connectAttempts = 10
	connectBackoff  = 3 * time.Second
)

// SQLiteDSN builds the modernc DSN with the pragmas every pooled connection needs.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
}

// Open connects to the configured database. Postgres connections are retried
// while the server comes up; sqlite files are created on demand.
func Open(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*sqlx.DB, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return openSQLite(ctx, cfg.SQLitePath)
	case config.DriverPostgres:
		return connectPG(ctx, cfg.DatabaseURL, logger)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func openSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := sqlx.Open(config.DriverSQLite, SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return db, nil
}

func connectPG(ctx context.Context, dsn string, logger zerolog.Logger) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for driver %s", config.DriverPostgres)
	}

	var (
		db  *sqlx.DB
		err error
	)
	for i := 1; i <= connectAttempts; i++ {
		db, err = sqlx.Open(config.DriverPostgres, dsn)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", i).Msg("failed to open DB")
		} else {
			err = db.PingContext(ctx)
			if err == nil {
				logger.Info().Msg("connected to database")
				return db, nil
			}
			_ = db.Close()
			logger.Warn().Err(err).Int("attempt", i).Msg("DB not ready")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}

	return nil, fmt.Errorf("could not connect to database after multiple attempts: %w", err)
}

func gooseDialect(driver string) string {
	if driver == config.DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// MigrateFS applies the embedded migrations for the connection's driver.
// The migration directory inside migrationsFS is named after the dialect family.
func MigrateFS(db *sqlx.DB, migrationsFS fs.FS) error {
	dir := "sqlite"
	if db.DriverName() == config.DriverPostgres {
		dir = "postgres"
	}

	goose.SetBaseFS(migrationsFS)
	defer func() {
		goose.SetBaseFS(nil)
	}()
	return Migrate(db, dir)
}

func Migrate(db *sqlx.DB, dir string) error {
	if err := goose.SetDialect(gooseDialect(db.DriverName())); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := goose.Up(db.DB, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
