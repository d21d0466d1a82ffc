package app

import (
	"reflect"
	"testing"
	"time"

	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "DEFAULT_TIMEZONE", "GOOGLE_CALENDAR_ID", "VIDEO_FRAME_COUNT", "VIDEO_MAX_DOWNLOAD_MB",
		"CORS_ORIGINS", "GOOGLE_APPLICATION_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS", "SPEECH_ENABLED",
		"PLACE_CACHE_TTL",
	} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(logger.NewNop())

	if cfg.Port != "3001" {
		t.Fatalf("port: want=3001 got=%q", cfg.Port)
	}
	if cfg.DefaultTimezone != "America/Los_Angeles" {
		t.Fatalf("timezone: want=America/Los_Angeles got=%q", cfg.DefaultTimezone)
	}
	if cfg.CalendarID != "primary" {
		t.Fatalf("calendar: want=primary got=%q", cfg.CalendarID)
	}
	if cfg.VideoFrameCount != 5 {
		t.Fatalf("frames: want=5 got=%d", cfg.VideoFrameCount)
	}
	if cfg.MaxDownloadBytes != 100<<20 {
		t.Fatalf("max download: want=%d got=%d", 100<<20, cfg.MaxDownloadBytes)
	}
	if !cfg.SpeechEnabled {
		t.Fatalf("speech should default on")
	}
	if cfg.PlaceCacheTTL != 24*time.Hour {
		t.Fatalf("place ttl: want=24h got=%v", cfg.PlaceCacheTTL)
	}
	if cfg.CORSOrigins != nil {
		t.Fatalf("cors: want=nil got=%v", cfg.CORSOrigins)
	}
}

func TestLoadConfigCredentialsPreferJSON(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", `{"type":"service_account"}`)
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/creds.json")
	cfg := LoadConfig(logger.NewNop())
	if cfg.GoogleCredentials != `{"type":"service_account"}` {
		t.Fatalf("creds: got=%q", cfg.GoogleCredentials)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	cfg = LoadConfig(logger.NewNop())
	if cfg.GoogleCredentials != "/etc/creds.json" {
		t.Fatalf("creds file: got=%q", cfg.GoogleCredentials)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test , ,http://b.test,")
	want := []string{"http://a.test", "http://b.test"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want=%v got=%v", want, got)
	}
	if splitList("") != nil {
		t.Fatalf("empty input should give nil")
	}
}
