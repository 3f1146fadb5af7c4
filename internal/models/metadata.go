package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type Thumbnail struct {
	URL    string `json:"url"`
	ID     string `json:"id,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// VideoMetadata is whatever the extractor could learn about a URL. Advisory
// only, never validated.
type VideoMetadata struct {
	Platform        string      `json:"platform"`
	Title           string      `json:"title,omitempty"`
	Description     string      `json:"description,omitempty"`
	Duration        *float64    `json:"duration,omitempty"`
	DurationString  string      `json:"duration_string,omitempty"`
	ViewCount       *int64      `json:"view_count,omitempty"`
	LikeCount       *int64      `json:"like_count,omitempty"`
	UploadDate      string      `json:"upload_date,omitempty"`
	Uploader        string      `json:"uploader,omitempty"`
	UploaderID      string      `json:"uploader_id,omitempty"`
	Thumbnail       string      `json:"thumbnail,omitempty"`
	Thumbnails      []Thumbnail `json:"thumbnails,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	Categories      []string    `json:"categories,omitempty"`
	WebpageURL      string      `json:"webpage_url,omitempty"`
	VideoURL        string      `json:"video_url,omitempty"`
	CanonicalURL    string      `json:"canonical_url,omitempty"`
	OriginalURL     string      `json:"original_url,omitempty"`
	ExtractedAt     string      `json:"extracted_at"`
	Error           string      `json:"error,omitempty"`
	ExtractionError string      `json:"extraction_error,omitempty"`
}

func (m *VideoMetadata) Failed() bool {
	return m != nil && (m.Error != "" || m.ExtractionError != "")
}

func (m VideoMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("metadata: marshal: %w", err)
	}
	return string(b), nil
}

func (m *VideoMetadata) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("metadata: unsupported column type %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, m)
}
