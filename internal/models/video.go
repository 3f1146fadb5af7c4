package models

import (
	"time"
)

type Video struct {
	ID          int64          `json:"id" db:"id"`
	Title       string         `json:"title" db:"title"`
	URL         string         `json:"url" db:"url"`
	Speaker     string         `json:"speaker" db:"speaker"`
	Tags        Tags           `json:"tags" db:"tags"`
	Description string         `json:"description" db:"description"`
	DateAdded   time.Time      `json:"date_added" db:"date_added"`
	ViewCount   int64          `json:"view_count" db:"view_count"`
	Metadata    *VideoMetadata `json:"metadata,omitempty" db:"metadata"`
}

// VideoInput is the editable part of a video, shared by the admin API,
// the bulk importer and the CLI.
type VideoInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	URL         string `json:"url" validate:"required,max=500,http_url"`
	Speaker     string `json:"speaker" validate:"required,max=100"`
	Tags        Tags   `json:"tags"`
	Description string `json:"description" validate:"max=2000"`
}

// Apply copies the editable fields onto v. ID, DateAdded and ViewCount are left alone.
func (in VideoInput) Apply(v *Video) {
	v.Title = in.Title
	v.URL = in.URL
	v.Speaker = in.Speaker
	v.Tags = in.Tags.Clean()
	v.Description = in.Description
}

// EventPayload is the summary sent along with mutation events.
type EventPayload struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Speaker string `json:"speaker"`
}

func (v *Video) Payload() EventPayload {
	return EventPayload{
		ID:      v.ID,
		Title:   v.Title,
		URL:     v.URL,
		Speaker: v.Speaker,
	}
}
