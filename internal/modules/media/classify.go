package media

import (
	"net/url"
	"path"
	"strings"
)

var videoExtensions = []string{".mp4", ".mov", ".webm", ".m4v", ".avi", ".mkv"}

var videoHosts = []string{
	"youtube.com",
	"youtu.be",
	"tiktok.com",
	"instagram.com/reel",
	"instagram.com/reels",
	"vimeo.com",
	"facebook.com/watch",
	"fb.watch",
}

// IsVideoURL classifies a URL as video by file extension or by a known
// video-hosting domain (substring match).
func IsVideoURL(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return false
	}
	p := lower
	if u, err := url.Parse(lower); err == nil && u.Path != "" {
		p = u.Path
	}
	ext := path.Ext(p)
	for _, e := range videoExtensions {
		if ext == e {
			return true
		}
	}
	for _, h := range videoHosts {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
