package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/grvbrk/vidcatalog/internal/archive"
	"github.com/grvbrk/vidcatalog/internal/export"
	"github.com/grvbrk/vidcatalog/internal/models"
	"github.com/grvbrk/vidcatalog/internal/store"
	"github.com/grvbrk/vidcatalog/internal/testutil"
	"github.com/grvbrk/vidcatalog/internal/webhooks"
)

var fixedNow = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

type harness struct {
	svc    *CatalogService
	videos *store.SQLVideoStore
	file   *archive.File
	cache  *mapCache
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	db, _ := testutil.NewDB(t)
	videos := store.NewSQLVideoStore(db)
	file := archive.NewFile(filepath.Join(t.TempDir(), "public_archive", "videos.json"))
	cache := &mapCache{}
	opts.Cache = cache

	d := webhooks.NewDispatcher(videos, file, cache, zerolog.Nop())
	svc := NewCatalogService(videos, d, opts, zerolog.Nop())
	svc.clock = func() time.Time { return fixedNow }
	return &harness{svc: svc, videos: videos, file: file, cache: cache}
}

func (h *harness) assertArchiveMatchesStore(t *testing.T) {
	t.Helper()
	videos, err := h.videos.ListVideos(context.Background())
	require.NoError(t, err)
	want, err := export.ToJSON(videos)
	require.NoError(t, err)
	got, err := h.file.Read()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func validInput(url string) models.VideoInput {
	return models.VideoInput{
		Title:   "Talk",
		URL:     url,
		Speaker: "Speaker",
		Tags:    models.Tags{"go", " ", "db"},
	}
}

func TestCreateUpdateDelete_SyncArchive(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	v, err := h.svc.CreateVideo(ctx, validInput("https://example.com/a"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.ID)
	assert.Equal(t, fixedNow, v.DateAdded)
	assert.Equal(t, models.Tags{"go", "db"}, v.Tags)
	h.assertArchiveMatchesStore(t)

	in := validInput("https://example.com/a")
	in.Title = "Renamed"
	_, err = h.svc.UpdateVideo(ctx, v.ID, in)
	require.NoError(t, err)
	h.assertArchiveMatchesStore(t)

	_, err = h.svc.DeleteVideo(ctx, v.ID)
	require.NoError(t, err)
	h.assertArchiveMatchesStore(t)

	got, err := h.file.Read()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestCreateVideo_ArchiveFailureDoesNotFailCreate(t *testing.T) {
	db, _ := testutil.NewDB(t)
	videos := store.NewSQLVideoStore(db)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	d := webhooks.NewDispatcher(videos, archive.NewFile(filepath.Join(blocker, "videos.json")), nil, zerolog.Nop())
	svc := NewCatalogService(videos, d, Options{}, zerolog.Nop())

	v, err := svc.CreateVideo(context.Background(), validInput("https://example.com/a"))
	require.NoError(t, err)

	stored, err := videos.GetVideoByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Talk", stored.Title)
}

func TestCreateVideo_Validation(t *testing.T) {
	db, _ := testutil.NewDB(t)
	n := new(NotifierMock)
	svc := NewCatalogService(store.NewSQLVideoStore(db), n, Options{}, zerolog.Nop())

	_, err := svc.CreateVideo(context.Background(), models.VideoInput{Title: "  ", URL: "not a url", Speaker: "S"})
	require.ErrorIs(t, err, models.ErrInvalidArgument)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Missing required field: title", "Invalid URL format"}, verr.Problems)
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateVideo_NotifiesOnce(t *testing.T) {
	db, _ := testutil.NewDB(t)
	n := new(NotifierMock)
	svc := NewCatalogService(store.NewSQLVideoStore(db), n, Options{}, zerolog.Nop())

	n.On("Notify", mock.Anything, webhooks.EventVideoCreated, models.EventPayload{
		ID: 1, Title: "Talk", URL: "https://example.com/a", Speaker: "Speaker",
	}).Once()

	_, err := svc.CreateVideo(context.Background(), validInput("https://example.com/a"))
	require.NoError(t, err)
	n.AssertExpectations(t)
}

func TestUpdateVideo_ReextractsOnlyWhenURLChanges(t *testing.T) {
	ex := &countingExtractor{}
	h := newHarness(t, Options{Extractor: ex})
	ctx := context.Background()

	v, err := h.svc.CreateVideo(ctx, validInput("https://example.com/a"))
	require.NoError(t, err)
	require.NotNil(t, v.Metadata)

	in := validInput("https://example.com/a")
	in.Description = "edited"
	_, err = h.svc.UpdateVideo(ctx, v.ID, in)
	require.NoError(t, err)
	assert.Len(t, ex.calls, 1)

	_, err = h.svc.UpdateVideo(ctx, v.ID, validInput("https://example.com/b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, ex.calls)

	stored, err := h.videos.GetVideoByID(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Metadata)
	assert.Equal(t, "https://example.com/b", stored.Metadata.OriginalURL)
	assert.True(t, fixedNow.Equal(stored.DateAdded))
}

func TestUpdateDelete_NotFound(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	_, err := h.svc.UpdateVideo(ctx, 99, validInput("https://example.com/a"))
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = h.svc.DeleteVideo(ctx, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = h.svc.DeleteVideo(ctx, 0)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestRecordView(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	v, err := h.svc.CreateVideo(ctx, validInput("https://example.com/a"))
	require.NoError(t, err)

	got, err := h.svc.RecordView(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ViewCount)
}

func TestBulkDelete(t *testing.T) {
	db, _ := testutil.NewDB(t)
	videos := store.NewSQLVideoStore(db)
	n := new(NotifierMock)
	svc := NewCatalogService(videos, n, Options{SyncAfterBulk: true}, zerolog.Nop())
	ctx := context.Background()

	for _, u := range []string{"https://a.test", "https://b.test"} {
		require.NoError(t, videos.CreateVideo(ctx, &models.Video{Title: "T", URL: u, Speaker: "S", DateAdded: fixedNow}))
	}

	deleted, err := svc.BulkDelete(ctx, []int64{404})
	require.NoError(t, err)
	assert.Zero(t, deleted)
	n.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)

	n.On("Sync", mock.Anything, "bulk_delete").Once()
	deleted, err = svc.BulkDelete(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	n.AssertExpectations(t)
}

func TestBulkDelete_StorageFailure(t *testing.T) {
	svc := NewCatalogService(brokenStore{}, new(NotifierMock), Options{SyncAfterBulk: true}, zerolog.Nop())

	_, err := svc.BulkDelete(context.Background(), []int64{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestPublicListing_UsesCache(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	data, err := h.svc.PublicListing(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	assert.Equal(t, 1, h.cache.sets)

	_, err = h.svc.PublicListing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.cache.sets, "second read served from cache")

	_, err = h.svc.CreateVideo(ctx, validInput("https://example.com/a"))
	require.NoError(t, err)

	data, err = h.svc.PublicListing(ctx)
	require.NoError(t, err)
	var records []export.Record
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 1)
}

func TestPublicListing_MutationDuringFillIsNotCached(t *testing.T) {
	db, _ := testutil.NewDB(t)
	videos := store.NewSQLVideoStore(db)
	file := archive.NewFile(filepath.Join(t.TempDir(), "public_archive", "videos.json"))
	cache := &mapCache{}
	d := webhooks.NewDispatcher(videos, file, cache, zerolog.Nop())

	racing := &racingStore{VideoStore: videos}
	svc := NewCatalogService(racing, d, Options{Cache: cache}, zerolog.Nop())
	ctx := context.Background()
	racing.mutate = func() {
		_, err := svc.CreateVideo(ctx, validInput("https://example.com/late"))
		require.NoError(t, err)
	}

	data, err := svc.PublicListing(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data), "the racing request still sees its own read")
	assert.Equal(t, 0, cache.sets, "stale fill must be dropped")

	data, err = svc.PublicListing(ctx)
	require.NoError(t, err)
	var records []export.Record
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "https://example.com/late", records[0].URL)
}

func TestCreateVideo_SyncSurvivesCallerCancel(t *testing.T) {
	db, _ := testutil.NewDB(t)
	videos := store.NewSQLVideoStore(db)
	file := archive.NewFile(filepath.Join(t.TempDir(), "public_archive", "videos.json"))
	d := webhooks.NewDispatcher(videos, file, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := NewCatalogService(cancelOnCommit{VideoStore: videos, cancel: cancel}, d, Options{}, zerolog.Nop())

	_, err := svc.CreateVideo(ctx, validInput("https://example.com/gone"))
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	got, err := file.Read()
	require.NoError(t, err)
	assert.Contains(t, string(got), "https://example.com/gone")
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newHarness(t, Options{})
	ctx := context.Background()

	in := validInput("https://example.com/a")
	in.Description = "with, commas"
	_, err := src.svc.CreateVideo(ctx, in)
	require.NoError(t, err)
	_, err = src.svc.CreateVideo(ctx, models.VideoInput{Title: "Bare", URL: "https://example.com/b", Speaker: "B"})
	require.NoError(t, err)

	data, err := src.svc.ExportJSON(ctx)
	require.NoError(t, err)

	dst := newHarness(t, Options{})
	dst.svc.clock = func() time.Time { return fixedNow.Add(48 * time.Hour) }
	res := dst.svc.ImportJSON(ctx, data)
	assert.Equal(t, ImportResult{Success: 2, Skipped: 0, Errors: []string{}}, res)

	want, err := src.videos.ListVideos(ctx)
	require.NoError(t, err)
	got, err := dst.videos.ListVideos(ctx)
	require.NoError(t, err)

	opts := cmp.Options{
		cmpopts.IgnoreFields(models.Video{}, "ID", "Metadata", "ViewCount"),
	}
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
