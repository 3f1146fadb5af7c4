package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/grvbrk/vidcatalog/internal/models"
)

type ImportResult struct {
	Success int      `json:"success"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

type importCandidate struct {
	models.VideoInput
	DateAdded string `json:"date_added"`
}

// Accepted date_added layouts, tried in order. The zone-less layouts are
// read as UTC.
var importDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseImportDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ImportJSON imports a JSON array of videos. Invalid rows are reported as
// "Row N: ..." and skipped, rows whose URL is already stored are counted as
// skipped, and the rest are written in a single transaction.
func (s *CatalogService) ImportJSON(ctx context.Context, data []byte) ImportResult {
	result := ImportResult{Errors: []string{}}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		result.Errors = append(result.Errors, "Invalid JSON format")
		return result
	}

	now := s.clock().UTC()
	batch := make([]*models.Video, 0, len(rows))
	for i, raw := range rows {
		row := i + 1

		var c importCandidate
		if err := json.Unmarshal(raw, &c); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Invalid record", row))
			continue
		}
		if err := s.validateInput(&c.VideoInput); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", row, err.Error()))
			continue
		}

		video := &models.Video{DateAdded: now}
		if t, ok := parseImportDate(c.DateAdded); ok {
			video.DateAdded = t
		}
		c.Apply(video)
		batch = append(batch, video)
	}

	inserted, skipped, err := s.videos.ImportVideos(ctx, batch)
	if err != nil {
		s.logger.Error().Err(err).Int("rows", len(rows)).Msg("bulk import failed")
		result.Errors = append(result.Errors, fmt.Sprintf("Import failed: %v", err))
		return result
	}
	result.Success = inserted
	result.Skipped = skipped

	s.logger.Info().
		Int("success", result.Success).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("bulk import")

	if inserted > 0 && s.syncAfterBulk {
		s.notifier.Sync(context.WithoutCancel(ctx), "bulk_import")
	}
	return result
}
