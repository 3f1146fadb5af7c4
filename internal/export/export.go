// Package export renders the video catalog in the shapes handed to the outside
// world: the public JSON listing and the CSV download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/grvbrk/vidcatalog/internal/models"
)

const csvDateLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"ID", "Title", "URL", "Speaker", "Tags", "Date Added", "Description"}

// Record is the public, export-only view of a video.
type Record struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Speaker     string   `json:"speaker"`
	Tags        []string `json:"tags"`
	DateAdded   string   `json:"date_added"`
	Description string   `json:"description"`
}

func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(layout)
}

func ToRecord(v models.Video) Record {
	return Record{
		ID:          v.ID,
		Title:       v.Title,
		URL:         v.URL,
		Speaker:     v.Speaker,
		Tags:        v.Tags.Clean(),
		DateAdded:   formatDate(v.DateAdded, time.RFC3339),
		Description: v.Description,
	}
}

// ToRecords keeps the order of videos.
func ToRecords(videos []models.Video) []Record {
	records := make([]Record, 0, len(videos))
	for _, v := range videos {
		records = append(records, ToRecord(v))
	}
	return records
}

// ToJSON renders videos as a two-space indented JSON array. No videos yields "[]".
func ToJSON(videos []models.Video) ([]byte, error) {
	data, err := json.MarshalIndent(ToRecords(videos), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal json: %w", err)
	}
	return data, nil
}

// ToCSV returns the header row followed by one row per video.
func ToCSV(videos []models.Video) [][]string {
	rows := make([][]string, 0, len(videos)+1)
	rows = append(rows, csvHeader)
	for _, v := range videos {
		rows = append(rows, []string{
			strconv.FormatInt(v.ID, 10),
			v.Title,
			v.URL,
			v.Speaker,
			v.Tags.Join(", "),
			formatDate(v.DateAdded, csvDateLayout),
			v.Description,
		})
	}
	return rows
}

func WriteCSV(w io.Writer, videos []models.Video) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(ToCSV(videos)); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}
	return nil
}

// Filename returns the download name for an export taken at t, e.g. videos_20250102_150405.json.
func Filename(t time.Time, ext string) string {
	return "videos_" + t.Format("20060102_150405") + "." + ext
}
