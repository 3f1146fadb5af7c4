// Package metadata learns what it can about a video URL: yt-dlp for the big
// hosting platforms, Open Graph tags for everything else.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/models"
)

const (
	userAgent     = "Mozilla/5.0"
	maxPageBytes  = 2 << 20
	maxThumbnails = 3
)

var ytdlpPlatforms = map[string]bool{
	"youtube":     true,
	"vimeo":       true,
	"dailymotion": true,
	"twitch":      true,
}

type Config struct {
	YtDlpPath string
	Timeout   time.Duration
}

type Extractor struct {
	runner Runner
	client *http.Client
	cfg    Config
	now    func() time.Time
	logger zerolog.Logger
}

func NewExtractor(cfg Config, runner Runner, client *http.Client, logger zerolog.Logger) *Extractor {
	if cfg.YtDlpPath == "" {
		cfg.YtDlpPath = "yt-dlp"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if runner == nil {
		runner = NewCommandRunner()
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Extractor{
		runner: runner,
		client: client,
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
}

// Extract never fails: problems are reported inside the returned metadata.
func (e *Extractor) Extract(ctx context.Context, rawURL string) *models.VideoMetadata {
	platform := DetectPlatform(rawURL)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	var (
		md  *models.VideoMetadata
		err error
	)
	switch {
	case ytdlpPlatforms[platform]:
		md, err = e.extractWithYtDlp(ctx, rawURL, platform)
	case platform == "twitter" || platform == "linkedin":
		md, err = e.extractOpenGraph(ctx, rawURL, platform)
	default:
		md, err = e.extractOpenGraph(ctx, rawURL, PlatformGeneric)
	}

	if err != nil {
		e.logger.Warn().Err(err).Str("url", rawURL).Str("platform", platform).Msg("metadata extraction failed")
		md = &models.VideoMetadata{Platform: platform, OriginalURL: rawURL}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			md.ExtractionError = err.Error()
		} else {
			md.Error = err.Error()
		}
	}

	md.ExtractedAt = e.now().UTC().Format(time.RFC3339)
	return md
}

type ytThumbnail struct {
	URL    string `json:"url"`
	ID     any    `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ytInfo struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Duration    *float64      `json:"duration"`
	ViewCount   *int64        `json:"view_count"`
	LikeCount   *int64        `json:"like_count"`
	UploadDate  string        `json:"upload_date"`
	Uploader    string        `json:"uploader"`
	UploaderID  string        `json:"uploader_id"`
	Thumbnail   string        `json:"thumbnail"`
	Thumbnails  []ytThumbnail `json:"thumbnails"`
	Tags        []string      `json:"tags"`
	Categories  []string      `json:"categories"`
	WebpageURL  string        `json:"webpage_url"`
}

func (e *Extractor) extractWithYtDlp(ctx context.Context, rawURL, platform string) (*models.VideoMetadata, error) {
	out, err := e.runner.Run(ctx, e.cfg.YtDlpPath, "-J", "--skip-download", "--no-warnings", "--no-playlist", rawURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("yt-dlp: %w", ctxErr)
		}
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	var info ytInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("yt-dlp: decode output: %w", err)
	}

	md := &models.VideoMetadata{
		Platform:    platform,
		Title:       info.Title,
		Description: info.Description,
		Duration:    info.Duration,
		ViewCount:   info.ViewCount,
		LikeCount:   info.LikeCount,
		UploadDate:  info.UploadDate,
		Uploader:    info.Uploader,
		UploaderID:  info.UploaderID,
		Thumbnail:   info.Thumbnail,
		Tags:        info.Tags,
		Categories:  info.Categories,
		WebpageURL:  info.WebpageURL,
		OriginalURL: rawURL,
	}
	if info.Duration != nil {
		md.DurationString = FormatDuration(*info.Duration)
	}
	for i, t := range info.Thumbnails {
		if i == maxThumbnails {
			break
		}
		id := ""
		if t.ID != nil {
			id = fmt.Sprint(t.ID)
		}
		md.Thumbnails = append(md.Thumbnails, models.Thumbnail{URL: t.URL, ID: id, Width: t.Width, Height: t.Height})
	}
	return md, nil
}

func (e *Extractor) extractOpenGraph(ctx context.Context, rawURL, platform string) (*models.VideoMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch page: unexpected status %d", resp.StatusCode)
	}

	page, err := parsePage(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	md := &models.VideoMetadata{
		Platform:    platform,
		Title:       page.og["title"],
		Description: page.og["description"],
		OriginalURL: rawURL,
	}

	switch platform {
	case "twitter":
		md.Thumbnail = page.og["image"]
	case "linkedin":
	default:
		if md.Title == "" {
			md.Title = page.title
		}
		md.Thumbnail = page.og["image"]
		md.VideoURL = page.og["video"]
		md.CanonicalURL = page.og["url"]
	}
	return md, nil
}
