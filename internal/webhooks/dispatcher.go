// Package webhooks regenerates the public archive whenever the catalog changes.
package webhooks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/archive"
	"github.com/grvbrk/vidcatalog/internal/export"
	"github.com/grvbrk/vidcatalog/internal/models"
	"github.com/grvbrk/vidcatalog/internal/store"
)

type Event string

const (
	EventVideoCreated Event = "video.created"
	EventVideoUpdated Event = "video.updated"
	EventVideoDeleted Event = "video.deleted"
)

func (e Event) Known() bool {
	switch e {
	case EventVideoCreated, EventVideoUpdated, EventVideoDeleted:
		return true
	}
	return false
}

type VideoLister interface {
	ListVideos(ctx context.Context) ([]models.Video, error)
}

// Dispatcher never reports failures to its caller. By the time it runs the
// mutation is committed, so a failed regeneration is logged and left for the
// next event to repair.
type Dispatcher struct {
	videos VideoLister
	file   *archive.File
	cache  store.ExportCache
	logger zerolog.Logger
}

func NewDispatcher(videos VideoLister, file *archive.File, cache store.ExportCache, logger zerolog.Logger) *Dispatcher {
	if cache == nil {
		cache = store.NopExportCache{}
	}
	return &Dispatcher{
		videos: videos,
		file:   file,
		cache:  cache,
		logger: logger,
	}
}

// Notify handles a single record mutation. Unknown events are ignored.
func (d *Dispatcher) Notify(ctx context.Context, event Event, payload models.EventPayload) {
	log := d.logger.With().Str("event", string(event)).Int64("video_id", payload.ID).Logger()

	if !event.Known() {
		log.Debug().Msg("ignoring unknown event")
		return
	}

	n, err := d.Regenerate(ctx)
	if err != nil {
		log.Error().Err(err).Str("url", payload.URL).Msg("public archive sync failed")
		return
	}
	log.Info().Int("videos", n).Msg("public archive synced")
}

// Sync regenerates the archive outside of a single record event, for bulk
// operations, restores and manual exports.
func (d *Dispatcher) Sync(ctx context.Context, reason string) {
	n, err := d.Regenerate(ctx)
	if err != nil {
		d.logger.Error().Err(err).Str("reason", reason).Msg("public archive sync failed")
		return
	}
	d.logger.Info().Str("reason", reason).Int("videos", n).Msg("public archive synced")
}

// Regenerate rewrites the archive from the current store contents and drops
// the cached public listing. It returns the number of exported videos.
func (d *Dispatcher) Regenerate(ctx context.Context) (int, error) {
	d.cache.Invalidate(ctx)

	videos, err := d.videos.ListVideos(ctx)
	if err != nil {
		return 0, fmt.Errorf("list videos: %w", err)
	}

	data, err := export.ToJSON(videos)
	if err != nil {
		return 0, err
	}

	if err := d.file.Write(data); err != nil {
		return 0, err
	}
	return len(videos), nil
}
