// Package backup takes and restores snapshots of the sqlite database.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/config"
	"github.com/grvbrk/vidcatalog/internal/models"
)

const (
	filePrefix  = "videos_backup_"
	stampLayout = "20060102_150405"
)

var nameRe = regexp.MustCompile(`^videos_backup_\d{8}_\d{6}(_\d+)?\.db$`)

// Syncer is told when a restore replaced the catalog contents.
type Syncer interface {
	Sync(ctx context.Context, reason string)
}

type Backup struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type Manager struct {
	db     *sqlx.DB
	dir    string
	keep   int
	syncer Syncer
	now    func() time.Time
	logger zerolog.Logger
}

func NewManager(db *sqlx.DB, dir string, keep int, syncer Syncer, logger zerolog.Logger) *Manager {
	if keep < 1 {
		keep = 10
	}
	return &Manager{
		db:     db,
		dir:    dir,
		keep:   keep,
		syncer: syncer,
		now:    time.Now,
		logger: logger,
	}
}

func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (m *Manager) supported() error {
	if m.db.DriverName() != config.DriverSQLite {
		return models.ErrBackupUnsupported
	}
	return nil
}

func (m *Manager) nextPath() (string, string) {
	stamp := m.now().Format(stampLayout)
	name := filePrefix + stamp + ".db"
	for i := 2; ; i++ {
		path := filepath.Join(m.dir, name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return name, path
		}
		name = fmt.Sprintf("%s%s_%d.db", filePrefix, stamp, i)
	}
}

// Create writes a consistent snapshot with VACUUM INTO and prunes old snapshots.
func (m *Manager) Create(ctx context.Context) (Backup, error) {
	if err := m.supported(); err != nil {
		return Backup{}, err
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return Backup{}, fmt.Errorf("backup: create dir: %w", err)
	}

	name, path := m.nextPath()
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO `+quote(path)); err != nil {
		return Backup{}, fmt.Errorf("backup: vacuum into %s: %w", name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Backup{}, fmt.Errorf("backup: stat %s: %w", name, err)
	}
	m.logger.Info().Str("backup", name).Int64("bytes", info.Size()).Msg("database backed up")

	if _, err := m.Cleanup(); err != nil {
		m.logger.Warn().Err(err).Msg("backup cleanup failed")
	}
	return Backup{Name: name, Size: info.Size(), CreatedAt: info.ModTime().UTC()}, nil
}

// List returns snapshots newest first. A missing directory is an empty list.
func (m *Manager) List() ([]Backup, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Backup{}, nil
		}
		return nil, fmt.Errorf("backup: list: %w", err)
	}

	backups := []Backup{}
	for _, e := range entries {
		if e.IsDir() || !ValidName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Backup{Name: e.Name(), Size: info.Size(), CreatedAt: info.ModTime().UTC()})
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].Name > backups[j].Name })
	return backups, nil
}

// Cleanup deletes everything but the newest keep snapshots.
func (m *Manager) Cleanup() ([]string, error) {
	backups, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(backups) <= m.keep {
		return nil, nil
	}

	var removed []string
	for _, b := range backups[m.keep:] {
		if err := os.Remove(filepath.Join(m.dir, b.Name)); err != nil {
			return removed, fmt.Errorf("backup: remove %s: %w", b.Name, err)
		}
		m.logger.Info().Str("backup", b.Name).Msg("removed old backup")
		removed = append(removed, b.Name)
	}
	return removed, nil
}

// Restore replaces the catalog tables with the contents of a snapshot in a
// single transaction, then asks the syncer to regenerate derived data.
// Ids keep increasing after a restore.
func (m *Manager) Restore(ctx context.Context, name string) error {
	if err := m.supported(); err != nil {
		return err
	}
	if !ValidName(name) {
		return fmt.Errorf("%q: %w", name, models.ErrInvalidBackupName)
	}

	path := filepath.Join(m.dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("backup %s: %w", name, models.ErrNotFound)
		}
		return fmt.Errorf("backup: stat %s: %w", name, err)
	}

	if err := m.copyFrom(ctx, path, name); err != nil {
		return err
	}
	m.logger.Info().Str("backup", name).Msg("database restored")

	if m.syncer != nil {
		m.syncer.Sync(ctx, "restore")
	}
	return nil
}

// copyFrom attaches the snapshot on one connection and swaps the table
// contents inside a transaction on that same connection.
func (m *Manager) copyFrom(ctx context.Context, path, name string) error {
	conn, err := m.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("backup: acquire conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `ATTACH DATABASE `+quote(path)+` AS snapshot`); err != nil {
		return fmt.Errorf("backup: attach %s: %w", name, err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), `DETACH DATABASE snapshot`); err != nil {
			m.logger.Warn().Err(err).Msg("detach snapshot failed")
		}
	}()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM main.videos`,
		`INSERT INTO main.videos (id, title, url, speaker, tags, description, date_added, view_count, metadata)
		 SELECT id, title, url, speaker, tags, description, date_added, view_count, metadata FROM snapshot.videos`,
		`DELETE FROM main.users`,
		`INSERT INTO main.users (id, username, password_hash, created_at)
		 SELECT id, username, password_hash, created_at FROM snapshot.users`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("backup: restore %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
