package services

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/grvbrk/vidcatalog/internal/models"
	"github.com/grvbrk/vidcatalog/internal/store"
	"github.com/grvbrk/vidcatalog/internal/webhooks"
)

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(ctx context.Context, event webhooks.Event, payload models.EventPayload) {
	m.Called(ctx, event, payload)
}

func (m *NotifierMock) Sync(ctx context.Context, reason string) {
	m.Called(ctx, reason)
}

func (m *NotifierMock) Regenerate(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type countingExtractor struct {
	calls []string
}

func (e *countingExtractor) Extract(_ context.Context, url string) *models.VideoMetadata {
	e.calls = append(e.calls, url)
	return &models.VideoMetadata{Platform: "generic", OriginalURL: url, ExtractedAt: "2025-01-01T00:00:00Z"}
}

// brokenStore fails every batch write.
type brokenStore struct {
	store.VideoStore
}

func (brokenStore) ImportVideos(context.Context, []*models.Video) (int, int, error) {
	return 0, 0, errors.New("disk I/O error")
}

func (brokenStore) BulkDelete(context.Context, []int64) (int64, error) {
	return 0, errors.New("database is locked")
}

type mapCache struct {
	data []byte
	gen  int64
	sets int
}

func (c *mapCache) Get(context.Context) ([]byte, int64, bool) { return c.data, c.gen, c.data != nil }
func (c *mapCache) Invalidate(context.Context)                { c.data = nil; c.gen++ }

func (c *mapCache) Set(_ context.Context, gen int64, data []byte) {
	if gen != c.gen {
		return
	}
	c.data = data
	c.sets++
}

// racingStore commits a mutation through the service right after the first
// listing read returns, before the caller gets to fill the cache.
type racingStore struct {
	store.VideoStore
	mutate func()
	fired  bool
}

func (s *racingStore) ListVideos(ctx context.Context) ([]models.Video, error) {
	videos, err := s.VideoStore.ListVideos(ctx)
	if !s.fired && s.mutate != nil {
		s.fired = true
		s.mutate()
	}
	return videos, err
}

// cancelOnCommit cancels the caller's context as soon as a create commits.
type cancelOnCommit struct {
	store.VideoStore
	cancel context.CancelFunc
}

func (s cancelOnCommit) CreateVideo(ctx context.Context, v *models.Video) error {
	err := s.VideoStore.CreateVideo(ctx, v)
	s.cancel()
	return err
}
