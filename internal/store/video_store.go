package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/grvbrk/vidcatalog/internal/models"
)

const videoColumns = `id, title, url, speaker, tags, description, date_added, view_count, metadata`

type VideoPage struct {
	Videos  []models.Video `json:"videos"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	Total   int            `json:"total"`
	HasMore bool           `json:"has_more"`
}

type VideoStore interface {
	ListVideos(ctx context.Context) ([]models.Video, error)
	ListPage(ctx context.Context, page, limit int) (*VideoPage, error)
	CountVideos(ctx context.Context) (int, error)
	GetVideoByID(ctx context.Context, id int64) (*models.Video, error)
	CreateVideo(ctx context.Context, video *models.Video) error
	UpdateVideo(ctx context.Context, video *models.Video) error
	DeleteVideo(ctx context.Context, id int64) (*models.Video, error)
	IncrementViewCount(ctx context.Context, id int64) (*models.Video, error)
	URLExists(ctx context.Context, url string) (bool, error)
	ImportVideos(ctx context.Context, videos []*models.Video) (inserted, skipped int, err error)
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
}

// SQLVideoStore works against both sqlite and postgres. Queries are written
// with ? placeholders and rebound for the connection's driver.
type SQLVideoStore struct {
	db *sqlx.DB
}

func NewSQLVideoStore(db *sqlx.DB) *SQLVideoStore {
	if db == nil {
		panic("db cannot be nil for SQLVideoStore")
	}
	return &SQLVideoStore{db: db}
}

func normalize(v *models.Video) {
	v.DateAdded = v.DateAdded.UTC()
	if v.Tags == nil {
		v.Tags = models.Tags{}
	}
}

// ListVideos returns every video in ascending id order.
func (s *SQLVideoStore) ListVideos(ctx context.Context) ([]models.Video, error) {
	videos := []models.Video{}
	query := `SELECT ` + videoColumns + ` FROM videos ORDER BY id ASC`
	if err := s.db.SelectContext(ctx, &videos, query); err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	for i := range videos {
		normalize(&videos[i])
	}
	return videos, nil
}

// ListPage returns one page of videos, newest first.
func (s *SQLVideoStore) ListPage(ctx context.Context, page, limit int) (*VideoPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	total, err := s.CountVideos(ctx)
	if err != nil {
		return nil, err
	}

	videos := []models.Video{}
	query := s.db.Rebind(`SELECT ` + videoColumns + ` FROM videos ORDER BY date_added DESC, id DESC LIMIT ? OFFSET ?`)
	if err := s.db.SelectContext(ctx, &videos, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to get videos page: %w", err)
	}
	for i := range videos {
		normalize(&videos[i])
	}

	return &VideoPage{
		Videos:  videos,
		Page:    page,
		Limit:   limit,
		Total:   total,
		HasMore: offset+len(videos) < total,
	}, nil
}

func (s *SQLVideoStore) CountVideos(ctx context.Context) (int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM videos`); err != nil {
		return 0, fmt.Errorf("failed to get total video count: %w", err)
	}
	return total, nil
}

func getVideo(ctx context.Context, q sqlx.QueryerContext, query string, id int64) (*models.Video, error) {
	var video models.Video
	if err := sqlx.GetContext(ctx, q, &video, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("video %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get video %d: %w", id, err)
	}
	normalize(&video)
	return &video, nil
}

func (s *SQLVideoStore) GetVideoByID(ctx context.Context, id int64) (*models.Video, error) {
	query := s.db.Rebind(`SELECT ` + videoColumns + ` FROM videos WHERE id = ?`)
	return getVideo(ctx, s.db, query, id)
}

func (s *SQLVideoStore) insertVideo(ctx context.Context, q sqlx.QueryerContext, video *models.Video) error {
	normalize(video)
	query := s.db.Rebind(`
	INSERT INTO videos (title, url, speaker, tags, description, date_added, view_count, metadata)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id`)

	err := q.QueryRowxContext(ctx, query,
		video.Title,
		video.URL,
		video.Speaker,
		video.Tags,
		video.Description,
		video.DateAdded,
		video.ViewCount,
		video.Metadata,
	).Scan(&video.ID)
	if err != nil {
		return fmt.Errorf("error running create video query: %w", err)
	}
	return nil
}

// CreateVideo inserts video and sets its ID.
func (s *SQLVideoStore) CreateVideo(ctx context.Context, video *models.Video) error {
	return s.insertVideo(ctx, s.db, video)
}

// UpdateVideo rewrites the editable fields and metadata. date_added and
// view_count are never touched here.
func (s *SQLVideoStore) UpdateVideo(ctx context.Context, video *models.Video) error {
	normalize(video)
	query := s.db.Rebind(`
	UPDATE videos
	SET title = ?, url = ?, speaker = ?, tags = ?, description = ?, metadata = ?
	WHERE id = ?`)

	res, err := s.db.ExecContext(ctx, query,
		video.Title,
		video.URL,
		video.Speaker,
		video.Tags,
		video.Description,
		video.Metadata,
		video.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update video %d: %w", video.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update video %d: %w", video.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("video %d: %w", video.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteVideo removes the video and returns the row as it was before deletion.
func (s *SQLVideoStore) DeleteVideo(ctx context.Context, id int64) (*models.Video, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	video, err := getVideo(ctx, tx, s.db.Rebind(`SELECT `+videoColumns+` FROM videos WHERE id = ?`), id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM videos WHERE id = ?`), id); err != nil {
		return nil, fmt.Errorf("failed to delete video %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return video, nil
}

// IncrementViewCount bumps view_count and returns the updated video.
func (s *SQLVideoStore) IncrementViewCount(ctx context.Context, id int64) (*models.Video, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.db.Rebind(`UPDATE videos SET view_count = view_count + 1 WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update video views: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("video %d: %w", id, models.ErrNotFound)
	}

	video, err := getVideo(ctx, tx, s.db.Rebind(`SELECT `+videoColumns+` FROM videos WHERE id = ?`), id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return video, nil
}

func (s *SQLVideoStore) urlExists(ctx context.Context, q sqlx.QueryerContext, url string) (bool, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, s.db.Rebind(`SELECT COUNT(*) FROM videos WHERE url = ?`), url); err != nil {
		return false, fmt.Errorf("failed to look up url: %w", err)
	}
	return n > 0, nil
}

func (s *SQLVideoStore) URLExists(ctx context.Context, url string) (bool, error) {
	return s.urlExists(ctx, s.db, url)
}

// ImportVideos inserts videos in order inside one transaction. A video whose
// URL is already stored, including by an earlier entry of the same batch, is
// skipped. Any storage error rolls back the whole batch.
func (s *SQLVideoStore) ImportVideos(ctx context.Context, videos []*models.Video) (int, int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, skipped := 0, 0
	for _, video := range videos {
		exists, err := s.urlExists(ctx, tx, video.URL)
		if err != nil {
			return 0, 0, err
		}
		if exists {
			skipped++
			continue
		}
		if err := s.insertVideo(ctx, tx, video); err != nil {
			return 0, 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, skipped, nil
}

// BulkDelete removes every video whose id is in ids and reports how many rows
// went away. Unknown ids are ignored.
func (s *SQLVideoStore) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM videos WHERE id IN (?)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build bulk delete: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete videos: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete videos: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}
