package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grvbrk/vidcatalog/internal/models"
	"github.com/grvbrk/vidcatalog/internal/store"
	"github.com/grvbrk/vidcatalog/internal/testutil"
)

func newVideo(title, url string) *models.Video {
	return &models.Video{
		Title:     title,
		URL:       url,
		Speaker:   "Speaker",
		Tags:      models.Tags{"go", "db"},
		DateAdded: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestVideoStore_CRUD(t *testing.T) {
	db, _ := testutil.NewDB(t)
	s := store.NewSQLVideoStore(db)
	ctx := context.Background()

	v := newVideo("First", "https://example.com/1")
	v.Metadata = &models.VideoMetadata{Platform: "generic", Title: "Page", ExtractedAt: "2025-03-01T12:00:00Z"}
	require.NoError(t, s.CreateVideo(ctx, v))
	assert.Equal(t, int64(1), v.ID)

	got, err := s.GetVideoByID(ctx, v.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(v, got); diff != "" {
		t.Errorf("stored video mismatch (-want +got):\n%s", diff)
	}

	got.Title = "Renamed"
	got.Tags = models.Tags{"x"}
	got.DateAdded = time.Now()
	got.ViewCount = 99
	require.NoError(t, s.UpdateVideo(ctx, got))

	after, err := s.GetVideoByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", after.Title)
	assert.Equal(t, models.Tags{"x"}, after.Tags)
	assert.True(t, after.DateAdded.Equal(v.DateAdded), "date_added must not change on update")
	assert.Equal(t, int64(0), after.ViewCount)

	deleted, err := s.DeleteVideo(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", deleted.Title)

	_, err = s.GetVideoByID(ctx, v.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.DeleteVideo(ctx, v.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	missing := newVideo("Ghost", "https://example.com/ghost")
	missing.ID = 42
	assert.ErrorIs(t, s.UpdateVideo(ctx, missing), models.ErrNotFound)
}

func TestVideoStore_IDsAreNotReused(t *testing.T) {
	db, _ := testutil.NewDB(t)
	s := store.NewSQLVideoStore(db)
	ctx := context.Background()

	a := newVideo("A", "https://a.test")
	require.NoError(t, s.CreateVideo(ctx, a))
	_, err := s.DeleteVideo(ctx, a.ID)
	require.NoError(t, err)

	b := newVideo("B", "https://b.test")
	require.NoError(t, s.CreateVideo(ctx, b))
	assert.Greater(t, b.ID, a.ID)
}

func TestVideoStore_ListOrdering(t *testing.T) {
	db, _ := testutil.NewDB(t)
	s := store.NewSQLVideoStore(db)
	ctx := context.Background()

	empty, err := s.ListVideos(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, u := range []string{"https://a.test", "https://b.test", "https://c.test"} {
		v := newVideo("V", u)
		v.DateAdded = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.CreateVideo(ctx, v))
	}

	all, err := s.ListVideos(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{all[0].ID, all[1].ID, all[2].ID})

	page, err := s.ListPage(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Videos, 2)
	assert.Equal(t, int64(3), page.Videos[0].ID)

	page, err = s.ListPage(ctx, 2, 2)
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	require.Len(t, page.Videos, 1)
	assert.Equal(t, int64(1), page.Videos[0].ID)
}

func TestVideoStore_IncrementViewCount(t *testing.T) {
	db, _ := testutil.NewDB(t)
	s := store.NewSQLVideoStore(db)
	ctx := context.Background()

	v := newVideo("A", "https://a.test")
	require.NoError(t, s.CreateVideo(ctx, v))

	for range 3 {
		_, err := s.IncrementViewCount(ctx, v.ID)
		require.NoError(t, err)
	}
	got, err := s.GetVideoByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ViewCount)

	_, err = s.IncrementViewCount(ctx, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestVideoStore_ImportVideos(t *testing.T) {
	db, _ := testutil.NewDB(t)
	s := store.NewSQLVideoStore(db)
	ctx := context.Background()

	require.NoError(t, s.CreateVideo(ctx, newVideo("Existing", "https://dup.test")))

	batch := []*models.Video{
		newVideo("New", "https://new.test"),
		newVideo("Dup of existing", "https://dup.test"),
		newVideo("Dup in batch", "https://new.test"),
		newVideo("Other", "https://other.test"),
	}
	inserted, skipped, err := s.ImportVideos(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 2, skipped)

	n, err := s.CountVideos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	exists, err := s.URLExists(ctx, "https://other.test")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestVideoStore_ImportVideosRollsBack(t *testing.T) {
	db, _ := testutil.NewDB(t)
	s := store.NewSQLVideoStore(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.ImportVideos(ctx, []*models.Video{newVideo("A", "https://a.test")})
	require.Error(t, err)

	n, err := s.CountVideos(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVideoStore_BulkDelete(t *testing.T) {
	db, _ := testutil.NewDB(t)
	s := store.NewSQLVideoStore(db)
	ctx := context.Background()

	for _, u := range []string{"https://a.test", "https://b.test", "https://c.test"} {
		require.NoError(t, s.CreateVideo(ctx, newVideo("V", u)))
	}

	n, err := s.BulkDelete(ctx, []int64{1, 3, 404})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.BulkDelete(ctx, []int64{404})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.BulkDelete(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	left, err := s.ListVideos(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, int64(2), left[0].ID)
}
