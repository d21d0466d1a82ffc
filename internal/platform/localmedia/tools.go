package localmedia

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
	"github.com/yungbote/snapcal-backend/internal/platform/httpx"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

// Tools is the glue around system binaries used by video extraction.
//
// REQUIRED BINARIES in the runtime image:
// - ffmpeg / ffprobe for duration probing, frame grabs and audio extraction
// - yt-dlp for YouTube-family downloads
//
// Every file this package creates lives under the work root and is named with a
// fresh uuid, so concurrent extractions never collide.
type Tools interface {
	AssertReady(ctx context.Context) error

	DownloadVideo(ctx context.Context, videoURL string) (string, error)
	ProbeDuration(ctx context.Context, videoPath string) (float64, error)
	ExtractFrame(ctx context.Context, videoPath string, atSeconds float64) ([]byte, error)
	ExtractAudioTrack(ctx context.Context, videoPath string, opts AudioExtractOptions) (string, error)

	// Remove deletes a file created by this package. Missing files are ignored.
	Remove(path string)
}

type AudioExtractOptions struct {
	SampleRateHz int
	Channels     int
	MaxSeconds   int // 0 keeps the whole track
}

type Config struct {
	WorkRoot string

	FFmpegPath  string
	FFprobePath string
	YtDlpPath   string

	MaxDownloadBytes int64
	DownloadTimeout  time.Duration
	YtDlpTimeout     time.Duration
	CommandTimeout   time.Duration
	UserAgent        string
}

func (c Config) withDefaults() Config {
	if c.WorkRoot == "" {
		c.WorkRoot = filepath.Join(os.TempDir(), "snapcal-media")
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.FFprobePath == "" {
		c.FFprobePath = "ffprobe"
	}
	if c.YtDlpPath == "" {
		c.YtDlpPath = "yt-dlp"
	}
	if c.MaxDownloadBytes <= 0 {
		c.MaxDownloadBytes = 100 << 20
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = 30 * time.Second
	}
	if c.YtDlpTimeout <= 0 {
		c.YtDlpTimeout = 60 * time.Second
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 2 * time.Minute
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (compatible; CalendarBot/1.0)"
	}
	return c
}

type tools struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) Tools {
	cfg = cfg.withDefaults()
	return &tools{
		log:        log.With("service", "MediaTools"),
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

func (m *tools) AssertReady(ctx context.Context) error {
	for _, bin := range []string{m.cfg.FFmpegPath, m.cfg.FFprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("missing required binary %q in PATH: %w", bin, err)
		}
	}
	if _, err := exec.LookPath(m.cfg.YtDlpPath); err != nil {
		m.log.Warn("yt-dlp not found; YouTube downloads will fail", "binary", m.cfg.YtDlpPath)
	}
	if err := os.MkdirAll(m.cfg.WorkRoot, 0o755); err != nil {
		return fmt.Errorf("create workRoot: %w", err)
	}
	return nil
}

func (m *tools) tempPath(prefix, ext string) (string, error) {
	if err := os.MkdirAll(m.cfg.WorkRoot, 0o755); err != nil {
		return "", fmt.Errorf("mkdir workRoot: %w", err)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(m.cfg.WorkRoot, prefix+"-"+uuid.NewString()+ext), nil
}

func (m *tools) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.log.Warn("Could not delete temp file", "path", path, "error", err)
	}
}

// IsYouTubeURL reports whether videoURL must go through yt-dlp.
func IsYouTubeURL(videoURL string) bool {
	u := strings.ToLower(videoURL)
	return strings.Contains(u, "youtube.com") || strings.Contains(u, "youtu.be")
}

func (m *tools) DownloadVideo(ctx context.Context, videoURL string) (string, error) {
	ctx = ctxutil.Default(ctx)
	if strings.TrimSpace(videoURL) == "" {
		return "", fmt.Errorf("videoURL required")
	}
	if IsYouTubeURL(videoURL) {
		return m.downloadWithYtDlp(ctx, videoURL)
	}

	body, err := httpx.GetLimited(ctx, m.httpClient, videoURL, map[string]string{"User-Agent": m.cfg.UserAgent}, m.cfg.DownloadTimeout, m.cfg.MaxDownloadBytes)
	if err != nil {
		return "", fmt.Errorf("download video: %w", err)
	}
	path, err := m.tempPath("video", ".mp4")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		m.Remove(path)
		return "", fmt.Errorf("write video: %w", err)
	}
	return path, nil
}

func (m *tools) downloadWithYtDlp(ctx context.Context, videoURL string) (string, error) {
	if _, err := exec.LookPath(m.cfg.YtDlpPath); err != nil {
		return "", fmt.Errorf("yt-dlp not found in PATH: %w", err)
	}
	path, err := m.tempPath("video", ".mp4")
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.YtDlpTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.cfg.YtDlpPath,
		"-f", "best[ext=mp4]/best",
		"--no-playlist",
		"--max-filesize", strconv.FormatInt(m.cfg.MaxDownloadBytes, 10),
		"-o", path,
		videoURL,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		m.removeMatching(path)
		return "", fmt.Errorf("yt-dlp failed: %w; out=%s", err, tail(out))
	}

	// yt-dlp sometimes appends its own extension.
	for _, candidate := range []string{path, path + ".mp4"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	matches, _ := filepath.Glob(strings.TrimSuffix(path, ".mp4") + "*")
	if len(matches) > 0 {
		return matches[0], nil
	}
	return "", fmt.Errorf("downloaded video file not found at %s", path)
}

func (m *tools) removeMatching(path string) {
	matches, _ := filepath.Glob(strings.TrimSuffix(path, ".mp4") + "*")
	for _, p := range matches {
		m.Remove(p)
	}
}

func (m *tools) ProbeDuration(ctx context.Context, videoPath string) (float64, error) {
	ctx = ctxutil.Default(ctx)
	if videoPath == "" {
		return 0, fmt.Errorf("videoPath required")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.cfg.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	return ParseProbeDuration(string(out))
}

// ParseProbeDuration reads the single duration line ffprobe prints.
func ParseProbeDuration(out string) (float64, error) {
	raw := strings.TrimSpace(out)
	if raw == "" || raw == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %v", d)
	}
	return d, nil
}

func (m *tools) ExtractFrame(ctx context.Context, videoPath string, atSeconds float64) ([]byte, error) {
	ctx = ctxutil.Default(ctx)
	if videoPath == "" {
		return nil, fmt.Errorf("videoPath required")
	}
	outPath, err := m.tempPath("frame", ".jpg")
	if err != nil {
		return nil, err
	}
	defer m.Remove(outPath)

	ctx, cancel := context.WithTimeout(ctx, m.cfg.CommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.cfg.FFmpegPath,
		"-y",
		"-ss", strconv.FormatFloat(atSeconds, 'f', 3, 64),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "3",
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg frame at %.3fs failed: %w; out=%s", atSeconds, err, tail(out))
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("empty frame at %.3fs", atSeconds)
	}
	return b, nil
}

func (m *tools) ExtractAudioTrack(ctx context.Context, videoPath string, opts AudioExtractOptions) (string, error) {
	ctx = ctxutil.Default(ctx)
	if videoPath == "" {
		return "", fmt.Errorf("videoPath required")
	}
	sr := opts.SampleRateHz
	if sr <= 0 {
		sr = 16000
	}
	ch := opts.Channels
	if ch <= 0 {
		ch = 1
	}

	outPath, err := m.tempPath("audio", ".wav")
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.CommandTimeout)
	defer cancel()

	args := []string{
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(ch),
		"-ar", strconv.Itoa(sr),
	}
	if opts.MaxSeconds > 0 {
		args = append(args, "-t", strconv.Itoa(opts.MaxSeconds))
	}
	args = append(args, "-f", "wav", outPath)

	cmd := exec.CommandContext(ctx, m.cfg.FFmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		m.Remove(outPath)
		return "", fmt.Errorf("ffmpeg extract audio failed: %w; out=%s", err, tail(out))
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("audio output missing at %s", outPath)
	}
	return outPath, nil
}

func tail(out []byte) string {
	const max = 400
	s := strings.TrimSpace(string(out))
	if len(s) > max {
		return s[len(s)-max:]
	}
	return s
}
