package metadata

import (
	"fmt"
	"net/url"
	"strings"
)

const PlatformGeneric = "generic"

type platformDomains struct {
	name    string
	domains []string
}

// Checked in order, first match wins.
var platformTable = []platformDomains{
	{"youtube", []string{"youtube.com", "youtu.be", "m.youtube.com"}},
	{"vimeo", []string{"vimeo.com", "player.vimeo.com"}},
	{"dailymotion", []string{"dailymotion.com", "dai.ly"}},
	{"twitch", []string{"twitch.tv", "clips.twitch.tv"}},
	{"twitter", []string{"twitter.com", "x.com", "t.co"}},
	{"linkedin", []string{"linkedin.com"}},
	{"facebook", []string{"facebook.com", "fb.watch"}},
	{"instagram", []string{"instagram.com"}},
	{"tiktok", []string{"tiktok.com"}},
	{"rumble", []string{"rumble.com"}},
	{"bitchute", []string{"bitchute.com"}},
	{"odysee", []string{"odysee.com"}},
	{"brighteon", []string{"brighteon.com"}},
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// DetectPlatform maps a URL to a platform name by its host. Anything
// unrecognised, including unparsable input, is "generic".
func DetectPlatform(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return PlatformGeneric
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range platformTable {
		for _, d := range p.domains {
			if hostMatches(host, d) {
				return p.name
			}
		}
	}
	return PlatformGeneric
}

type SupportedPlatform struct {
	Name     string   `json:"name"`
	Domains  []string `json:"domains"`
	Features []string `json:"features"`
}

var supported = []SupportedPlatform{
	{Name: "YouTube", Domains: []string{"youtube.com", "youtu.be"}, Features: []string{"title", "description", "duration", "thumbnails", "view_count", "tags"}},
	{Name: "Vimeo", Domains: []string{"vimeo.com"}, Features: []string{"title", "description", "duration", "thumbnails", "view_count"}},
	{Name: "Dailymotion", Domains: []string{"dailymotion.com"}, Features: []string{"title", "description", "duration", "thumbnails", "view_count"}},
	{Name: "Twitch", Domains: []string{"twitch.tv"}, Features: []string{"title", "description", "duration", "thumbnails", "view_count"}},
	{Name: "Twitter/X", Domains: []string{"twitter.com", "x.com"}, Features: []string{"title", "description", "thumbnail"}},
	{Name: "LinkedIn", Domains: []string{"linkedin.com"}, Features: []string{"title", "description"}},
	{Name: "Facebook", Domains: []string{"facebook.com"}, Features: []string{"title", "description", "thumbnail"}},
	{Name: "TikTok", Domains: []string{"tiktok.com"}, Features: []string{"title", "description", "thumbnail"}},
	{Name: "Rumble", Domains: []string{"rumble.com"}, Features: []string{"title", "description", "duration", "thumbnails"}},
	{Name: "Generic", Domains: []string{"*"}, Features: []string{"title", "description", "thumbnail"}},
}

// SupportedPlatforms returns a copy of the advertised platform list.
func SupportedPlatforms() []SupportedPlatform {
	out := make([]SupportedPlatform, len(supported))
	copy(out, supported)
	return out
}

type URLCheck struct {
	Valid     bool   `json:"valid"`
	Platform  string `json:"platform,omitempty"`
	Supported bool   `json:"supported"`
	Error     string `json:"error,omitempty"`
}

// ValidateURL reports whether rawURL is an absolute http(s) URL and which
// platform it belongs to.
func ValidateURL(rawURL string) URLCheck {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return URLCheck{Error: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return URLCheck{Error: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return URLCheck{Error: "missing host"}
	}
	p := DetectPlatform(rawURL)
	return URLCheck{Valid: true, Platform: p, Supported: p != PlatformGeneric}
}

// FormatDuration renders whole seconds as HH:MM:SS, or MM:SS under an hour.
// Zero or negative durations yield "".
func FormatDuration(seconds float64) string {
	total := int(seconds)
	if total <= 0 {
		return ""
	}
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
