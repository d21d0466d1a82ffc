package app

import (
	"strings"
	"time"

	"github.com/yungbote/snapcal-backend/internal/platform/envutil"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins []string

	DefaultTimezone string
	CalendarID      string

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAITimeout     time.Duration
	OpenAIMaxRetries  int
	FrameConcurrency  int
	GoogleMapsAPIKey  string
	MapsLanguage      string
	GoogleCredentials string

	SpeechEnabled    bool
	SpeechLanguage   string
	VisionOCREnabled bool
	ArchiveBucket    string
	ArchiveCDNDomain string

	VideoFrameCount  int
	MediaWorkDir     string
	MaxDownloadBytes int64
	MetadataTimeout  time.Duration
	PlaceCacheTTL    time.Duration

	RedisAddr   string
	DatabaseURL string
	SQLitePath  string

	OtelEnabled     bool
	OtelEndpoint    string
	OtelHeaders     string
	OtelInsecure    bool
	OtelSampleRatio float64
}

func LoadConfig(log *logger.Logger) Config {
	creds := envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", "", log)
	if creds == "" {
		creds = envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "", log)
	}
	return Config{
		Port:        envutil.String("PORT", "3001", log),
		Environment: envutil.String("APP_ENV", "development", log),
		CORSOrigins: splitList(envutil.String("CORS_ORIGINS", "", log)),

		DefaultTimezone: envutil.String("DEFAULT_TIMEZONE", "America/Los_Angeles", log),
		CalendarID:      envutil.String("GOOGLE_CALENDAR_ID", "primary", log),

		OpenAIAPIKey:      envutil.String("OPENAI_API_KEY", "", log),
		OpenAIBaseURL:     envutil.String("OPENAI_BASE_URL", "https://api.openai.com/v1", log),
		OpenAIModel:       envutil.String("OPENAI_MODEL", "gpt-4o-mini", log),
		OpenAITimeout:     envutil.Duration("OPENAI_TIMEOUT", 90*time.Second, log),
		OpenAIMaxRetries:  envutil.Int("OPENAI_MAX_RETRIES", 2, log),
		FrameConcurrency:  envutil.Int("FRAME_CONCURRENCY", 0, log),
		GoogleMapsAPIKey:  envutil.String("GOOGLE_MAPS_API_KEY", "", log),
		MapsLanguage:      envutil.String("GOOGLE_MAPS_LANGUAGE", "en", log),
		GoogleCredentials: creds,

		SpeechEnabled:    envutil.Bool("SPEECH_ENABLED", true, log),
		SpeechLanguage:   envutil.String("SPEECH_LANGUAGE", "en-US", log),
		VisionOCREnabled: envutil.Bool("VISION_OCR_ENABLED", false, log),
		ArchiveBucket:    envutil.String("GCS_ARCHIVE_BUCKET", "", log),
		ArchiveCDNDomain: envutil.String("GCS_ARCHIVE_CDN_DOMAIN", "", log),

		VideoFrameCount:  envutil.Int("VIDEO_FRAME_COUNT", 5, log),
		MediaWorkDir:     envutil.String("MEDIA_WORK_DIR", "", log),
		MaxDownloadBytes: int64(envutil.Int("VIDEO_MAX_DOWNLOAD_MB", 100, log)) << 20,
		MetadataTimeout:  envutil.Duration("METADATA_TIMEOUT", 10*time.Second, log),
		PlaceCacheTTL:    envutil.Duration("PLACE_CACHE_TTL", 24*time.Hour, log),

		RedisAddr:   envutil.String("REDIS_ADDR", "", log),
		DatabaseURL: envutil.String("DATABASE_URL", "", log),
		SQLitePath:  envutil.String("SQLITE_PATH", "data/snapcal.db", log),

		OtelEnabled:     envutil.Bool("OTEL_ENABLED", false, log),
		OtelEndpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
		OtelHeaders:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log),
		OtelInsecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
		OtelSampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1, log),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
