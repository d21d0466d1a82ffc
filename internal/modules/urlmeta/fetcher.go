package urlmeta

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
	"github.com/yungbote/snapcal-backend/internal/platform/httpx"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

// Metadata is what a shared link tells us about itself. Every field is optional.
type Metadata struct {
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	SiteName    string            `json:"siteName,omitempty"`
	OEmbed      map[string]any    `json:"oEmbed,omitempty"`
	OpenGraph   map[string]string `json:"openGraph,omitempty"`
}

func (m Metadata) IsEmpty() bool {
	return m.Title == "" && m.Description == "" && m.ImageURL == "" && m.SiteName == ""
}

type Fetcher interface {
	// Fetch never fails; a link we cannot read yields an empty Metadata.
	Fetch(ctx context.Context, rawURL string) Metadata
}

type Config struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

type fetcher struct {
	log        *logger.Logger
	httpClient *http.Client
	cfg        Config
	providers  []oembedProvider
}

func NewFetcher(log *logger.Logger, cfg Config) Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; CalendarBot/1.0)"
	}
	return &fetcher{
		log:        log.With("service", "URLMetadataFetcher"),
		httpClient: &http.Client{},
		cfg:        cfg,
		providers:  defaultProviders,
	}
}

func (f *fetcher) Fetch(ctx context.Context, rawURL string) Metadata {
	ctx = ctxutil.Default(ctx)
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Metadata{}
	}

	if endpoint := f.oembedEndpoint(rawURL); endpoint != "" {
		md, err := f.fetchOEmbed(ctx, endpoint)
		if err == nil {
			return md
		}
		f.log.Debug("oEmbed lookup failed, falling back to page tags", "url", rawURL, "error", err)
	}

	md, err := f.fetchPage(ctx, rawURL)
	if err != nil {
		f.log.Warn("URL metadata fetch failed", "url", rawURL, "error", err)
		return Metadata{}
	}
	return md
}

func (f *fetcher) oembedEndpoint(rawURL string) string {
	host := hostOf(rawURL)
	for _, p := range f.providers {
		if p.match(host) {
			return p.endpoint + url.QueryEscape(rawURL)
		}
	}
	return ""
}

func (f *fetcher) fetchOEmbed(ctx context.Context, endpoint string) (Metadata, error) {
	body, err := httpx.GetLimited(ctx, f.httpClient, endpoint, map[string]string{
		"User-Agent": f.cfg.UserAgent,
		"Accept":     "application/json",
	}, f.cfg.Timeout, f.cfg.MaxBodyBytes)
	if err != nil {
		return Metadata{}, err
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Title:       str(data["title"]),
		Description: str(data["description"]),
		ImageURL:    str(data["thumbnail_url"]),
		SiteName:    str(data["provider_name"]),
		OEmbed:      data,
	}, nil
}

func (f *fetcher) fetchPage(ctx context.Context, rawURL string) (Metadata, error) {
	body, err := httpx.GetLimited(ctx, f.httpClient, rawURL, map[string]string{
		"User-Agent": f.cfg.UserAgent,
		"Accept":     "text/html,application/xhtml+xml",
	}, f.cfg.Timeout, f.cfg.MaxBodyBytes)
	if err != nil {
		return Metadata{}, err
	}

	tags := ParseOpenGraph(string(body))
	md := Metadata{
		Title:       tags["title"],
		Description: tags["description"],
		ImageURL:    tags["image"],
		SiteName:    tags["site_name"],
		OpenGraph:   tags,
	}
	if md.Description == "" {
		f.fillFromReadability(body, rawURL, &md)
	}
	return md, nil
}

// fillFromReadability uses the page's main text when it has no description tag.
func (f *fetcher) fillFromReadability(body []byte, rawURL string, md *Metadata) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		f.log.Debug("Readability extraction failed", "url", rawURL, "error", err)
		return
	}
	md.Description = strings.TrimSpace(article.Excerpt)
	if md.Title == "" {
		md.Title = strings.TrimSpace(article.Title)
	}
	if md.SiteName == "" {
		md.SiteName = strings.TrimSpace(article.SiteName)
	}
	if md.ImageURL == "" {
		md.ImageURL = strings.TrimSpace(article.Image)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Hostname())
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
