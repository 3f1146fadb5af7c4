// Package services owns the catalog's write rules. Every mutation runs in two
// phases: commit to the store (errors returned), then notify the dispatcher
// (never fails the caller). Phase two runs detached from the caller's
// cancellation so a dropped client cannot leave the archive stale.
package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/export"
	"github.com/grvbrk/vidcatalog/internal/models"
	"github.com/grvbrk/vidcatalog/internal/store"
	"github.com/grvbrk/vidcatalog/internal/webhooks"
)

const DashboardPageSize = 20

type Notifier interface {
	Notify(ctx context.Context, event webhooks.Event, payload models.EventPayload)
	Sync(ctx context.Context, reason string)
	Regenerate(ctx context.Context) (int, error)
}

type MetadataExtractor interface {
	Extract(ctx context.Context, url string) *models.VideoMetadata
}

type Options struct {
	// SyncAfterBulk regenerates the public archive after a bulk import or
	// bulk delete that changed at least one row.
	SyncAfterBulk bool
	Extractor     MetadataExtractor
	Cache         store.ExportCache
}

type CatalogService struct {
	videos        store.VideoStore
	notifier      Notifier
	extractor     MetadataExtractor
	cache         store.ExportCache
	syncAfterBulk bool
	validate      *validator.Validate
	clock         func() time.Time
	logger        zerolog.Logger
}

func NewCatalogService(videos store.VideoStore, notifier Notifier, opts Options, logger zerolog.Logger) *CatalogService {
	cache := opts.Cache
	if cache == nil {
		cache = store.NopExportCache{}
	}
	return &CatalogService{
		videos:        videos,
		notifier:      notifier,
		extractor:     opts.Extractor,
		cache:         cache,
		syncAfterBulk: opts.SyncAfterBulk,
		validate:      newValidator(),
		clock:         time.Now,
		logger:        logger,
	}
}

func (s *CatalogService) ListVideos(ctx context.Context) ([]models.Video, error) {
	return s.videos.ListVideos(ctx)
}

func (s *CatalogService) ListPage(ctx context.Context, page int) (*store.VideoPage, error) {
	return s.videos.ListPage(ctx, page, DashboardPageSize)
}

func (s *CatalogService) GetVideo(ctx context.Context, id int64) (*models.Video, error) {
	if id < 1 {
		return nil, models.ErrInvalidArgument
	}
	return s.videos.GetVideoByID(ctx, id)
}

// RecordView counts one public view. view_count is not part of the export
// shape, so the archive is left alone.
func (s *CatalogService) RecordView(ctx context.Context, id int64) (*models.Video, error) {
	if id < 1 {
		return nil, models.ErrInvalidArgument
	}
	return s.videos.IncrementViewCount(ctx, id)
}

func (s *CatalogService) extract(ctx context.Context, url string) *models.VideoMetadata {
	if s.extractor == nil {
		return nil
	}
	return s.extractor.Extract(ctx, url)
}

func (s *CatalogService) CreateVideo(ctx context.Context, in models.VideoInput) (*models.Video, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	video := &models.Video{DateAdded: s.clock().UTC()}
	in.Apply(video)
	video.Metadata = s.extract(ctx, video.URL)

	if err := s.videos.CreateVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}

	s.notifier.Notify(context.WithoutCancel(ctx), webhooks.EventVideoCreated, video.Payload())
	return video, nil
}

// UpdateVideo replaces the editable fields. Metadata is re-extracted only
// when the URL changed.
func (s *CatalogService) UpdateVideo(ctx context.Context, id int64, in models.VideoInput) (*models.Video, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	video, err := s.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	urlChanged := video.URL != in.URL
	in.Apply(video)
	if urlChanged {
		video.Metadata = s.extract(ctx, video.URL)
	}

	if err := s.videos.UpdateVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}

	s.notifier.Notify(context.WithoutCancel(ctx), webhooks.EventVideoUpdated, video.Payload())
	return video, nil
}

func (s *CatalogService) DeleteVideo(ctx context.Context, id int64) (*models.Video, error) {
	if id < 1 {
		return nil, models.ErrInvalidArgument
	}

	video, err := s.videos.DeleteVideo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete video: %w", err)
	}

	s.notifier.Notify(context.WithoutCancel(ctx), webhooks.EventVideoDeleted, video.Payload())
	return video, nil
}

// BulkDelete removes the given ids in one transaction and returns how many
// rows were actually deleted.
func (s *CatalogService) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	n, err := s.videos.BulkDelete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	s.logger.Info().Int("requested", len(ids)).Int64("deleted", n).Msg("bulk delete")

	if n > 0 && s.syncAfterBulk {
		s.notifier.Sync(context.WithoutCancel(ctx), "bulk_delete")
	}
	return n, nil
}

// PublicListing returns the JSON body of the public video listing, served
// from the cache when possible. A miss is filled only if no mutation
// invalidated the cache while the store was being read.
func (s *CatalogService) PublicListing(ctx context.Context) ([]byte, error) {
	data, gen, ok := s.cache.Get(ctx)
	if ok {
		return data, nil
	}

	videos, err := s.videos.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	data, err = export.ToJSON(videos)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, gen, data)
	return data, nil
}

func (s *CatalogService) ExportJSON(ctx context.Context) ([]byte, error) {
	videos, err := s.videos.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	return export.ToJSON(videos)
}

func (s *CatalogService) ExportCSV(ctx context.Context, w io.Writer) error {
	videos, err := s.videos.ListVideos(ctx)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, videos)
}

// PublishArchive regenerates the public archive right away and reports failures.
func (s *CatalogService) PublishArchive(ctx context.Context) (int, error) {
	return s.notifier.Regenerate(ctx)
}

// Now is the service clock, exposed for export file names.
func (s *CatalogService) Now() time.Time {
	return s.clock()
}
