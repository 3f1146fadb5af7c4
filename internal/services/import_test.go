package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/grvbrk/vidcatalog/internal/export"
	"github.com/grvbrk/vidcatalog/internal/models"
	"github.com/grvbrk/vidcatalog/internal/store"
	"github.com/grvbrk/vidcatalog/internal/testutil"
)

func TestImportJSON_SingleRecordTwice(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	payload := []byte(`[{"title":"T1","url":"http://a.com","speaker":"S"}]`)

	res := h.svc.ImportJSON(ctx, payload)
	assert.Equal(t, ImportResult{Success: 1, Skipped: 0, Errors: []string{}}, res)

	data, err := h.svc.PublicListing(ctx)
	require.NoError(t, err)
	var records []export.Record
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, []string{}, records[0].Tags)
	assert.Equal(t, "", records[0].Description)

	res = h.svc.ImportJSON(ctx, payload)
	assert.Equal(t, ImportResult{Success: 0, Skipped: 1, Errors: []string{}}, res)
}

func TestImportJSON_RowErrors(t *testing.T) {
	h := newHarness(t, Options{})
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}

	manyTags := make([]string, 60)
	for i := range manyTags {
		manyTags[i] = fmt.Sprintf("tag%d", i)
	}
	longTag := strings.Repeat("t", 150)

	payload, err := json.Marshal([]map[string]any{
		{"title": "ok", "url": "https://ok.test", "speaker": "S", "tags": "a, b"},
		{"url": "https://x.test"},
		{"title": string(long), "url": "nope", "speaker": "S"},
		{"title": "dup", "url": "https://ok.test", "speaker": "S"},
		{"title": 5, "url": "https://y.test", "speaker": "S"},
		{"title": "js", "url": "javascript:alert(1)", "speaker": "S"},
		{"title": "mail", "url": "mailto:a@b.c", "speaker": "S"},
		{"title": "opaque", "url": "foo:bar", "speaker": "S"},
		{"title": "many tags", "url": "https://tags.test", "speaker": "S", "tags": manyTags},
		{"title": "long tag", "url": "https://longtag.test", "speaker": "S", "tags": []string{longTag}},
	})
	require.NoError(t, err)

	res := h.svc.ImportJSON(context.Background(), payload)
	assert.Equal(t, 3, res.Success)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{
		"Row 2: Missing required field: title, Missing required field: speaker",
		"Row 3: Title too long (max 200 characters), Invalid URL format",
		"Row 5: Invalid record",
		"Row 6: Invalid URL format",
		"Row 7: Invalid URL format",
		"Row 8: Invalid URL format",
	}, res.Errors)

	exists, err := h.videos.URLExists(context.Background(), "javascript:alert(1)")
	require.NoError(t, err)
	assert.False(t, exists)

	v, err := h.videos.GetVideoByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.Tags{"a", "b"}, v.Tags)

	videos, err := h.videos.ListVideos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 3)
	assert.Len(t, videos[1].Tags, 60)
	assert.Equal(t, models.Tags{longTag}, videos[2].Tags)
}

func TestImportJSON_InvalidJSON(t *testing.T) {
	h := newHarness(t, Options{})

	for _, body := range []string{`{not json`, `{"title":"object not array"}`, ``} {
		res := h.svc.ImportJSON(context.Background(), []byte(body))
		assert.Equal(t, ImportResult{Errors: []string{"Invalid JSON format"}}, res, body)
	}
}

func TestImportJSON_DateAdded(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	res := h.svc.ImportJSON(ctx, []byte(`[
		{"title":"a","url":"https://a.test","speaker":"S","date_added":"2024-02-03T04:05:06Z"},
		{"title":"b","url":"https://b.test","speaker":"S","date_added":"2024-02-03T04:05:06.123456"},
		{"title":"c","url":"https://c.test","speaker":"S","date_added":"yesterday"}
	]`))
	require.Equal(t, 3, res.Success)

	videos, err := h.videos.ListVideos(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 3)
	assert.True(t, videos[0].DateAdded.Equal(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)))
	assert.True(t, videos[1].DateAdded.Equal(time.Date(2024, 2, 3, 4, 5, 6, 123456000, time.UTC)))
	assert.True(t, videos[2].DateAdded.Equal(fixedNow))
}

func TestImportJSON_StorageFailureRollsBack(t *testing.T) {
	n := new(NotifierMock)
	svc := NewCatalogService(brokenStore{}, n, Options{SyncAfterBulk: true}, zerolog.Nop())

	res := svc.ImportJSON(context.Background(), []byte(`[{"title":"T1","url":"http://a.com","speaker":"S"}]`))
	assert.Equal(t, ImportResult{Errors: []string{"Import failed: disk I/O error"}}, res)
	n.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)
}

func TestImportJSON_SyncAfterBulk(t *testing.T) {
	db, _ := testutil.NewDB(t)
	n := new(NotifierMock)
	svc := NewCatalogService(store.NewSQLVideoStore(db), n, Options{SyncAfterBulk: true}, zerolog.Nop())
	payload := []byte(`[{"title":"T1","url":"http://a.com","speaker":"S"}]`)

	n.On("Sync", mock.Anything, "bulk_import").Once()
	svc.ImportJSON(context.Background(), payload)
	svc.ImportJSON(context.Background(), payload)
	n.AssertExpectations(t)

	off := NewCatalogService(store.NewSQLVideoStore(db), new(NotifierMock), Options{}, zerolog.Nop())
	res := off.ImportJSON(context.Background(), []byte(`[{"title":"T2","url":"http://b.com","speaker":"S"}]`))
	assert.Equal(t, 1, res.Success)
}
