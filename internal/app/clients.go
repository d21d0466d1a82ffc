package app

import (
	"context"
	"fmt"

	"github.com/yungbote/snapcal-backend/internal/clients/gcal"
	"github.com/yungbote/snapcal-backend/internal/clients/gcp"
	"github.com/yungbote/snapcal-backend/internal/clients/maps"
	"github.com/yungbote/snapcal-backend/internal/clients/openai"
	"github.com/yungbote/snapcal-backend/internal/clients/redis"
	"github.com/yungbote/snapcal-backend/internal/platform/localmedia"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

// Clients holds external collaborators. Everything except the model client is
// optional; a nil field means that capability is off and its caller degrades.
type Clients struct {
	OpenAI     openai.Client
	Maps       maps.Client
	Calendar   gcal.Client
	Speech     gcp.Speech
	Vision     gcp.Vision
	Bucket     gcp.BucketService
	PlaceCache redis.PlaceCache
	Media      localmedia.Tools
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Openai
	oa, err := openai.NewClient(log, openai.Config{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		Timeout:    cfg.OpenAITimeout,
		MaxRetries: cfg.OpenAIMaxRetries,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	c.OpenAI = oa

	// Maps
	if cfg.GoogleMapsAPIKey != "" {
		m, err := maps.NewClient(log, maps.Config{APIKey: cfg.GoogleMapsAPIKey, Language: cfg.MapsLanguage})
		if err != nil {
			log.Warn("Maps client unavailable; locations stay name-only", "error", err)
		} else {
			c.Maps = m
		}
	} else {
		log.Warn("GOOGLE_MAPS_API_KEY not set; locations stay name-only")
	}

	gopts := gcp.ClientOptions(cfg.GoogleCredentials)

	// Calendar
	if cal, err := gcal.NewClient(ctx, log, gopts...); err != nil {
		log.Warn("Calendar client unavailable; saves disabled and conflicts empty", "error", err)
	} else {
		c.Calendar = cal
	}

	// Gcp
	if cfg.SpeechEnabled {
		if sp, err := gcp.NewSpeech(log, cfg.SpeechLanguage, gopts...); err != nil {
			log.Warn("Speech client unavailable; video audio will not be transcribed", "error", err)
		} else {
			c.Speech = sp
		}
	}
	if cfg.VisionOCREnabled {
		if v, err := gcp.NewVision(log, gopts...); err != nil {
			log.Warn("Vision client unavailable; flyer OCR hint disabled", "error", err)
		} else {
			c.Vision = v
		}
	}
	if cfg.ArchiveBucket != "" {
		if b, err := gcp.NewBucketService(log, cfg.ArchiveBucket, cfg.ArchiveCDNDomain, gopts...); err != nil {
			log.Warn("Bucket client unavailable; flyers will not be archived", "error", err)
		} else {
			c.Bucket = b
		}
	}

	// Redis
	if cfg.RedisAddr != "" {
		pc, err := redis.NewPlaceCache(log, cfg.RedisAddr, "")
		if err != nil {
			log.Warn("Redis place cache unavailable; using memory cache only", "error", err)
		} else {
			c.PlaceCache = pc
		}
	}

	// Local media
	tools := localmedia.New(log, localmedia.Config{
		WorkRoot:         cfg.MediaWorkDir,
		MaxDownloadBytes: cfg.MaxDownloadBytes,
	})
	if err := tools.AssertReady(ctx); err != nil {
		log.Warn("Video tooling unavailable; video links use metadata only", "error", err)
	} else {
		c.Media = tools
	}

	return c, nil
}

// Capabilities reports which optional collaborators are live.
func (c Clients) Capabilities() map[string]bool {
	return map[string]bool{
		"calendar":   c.Calendar != nil,
		"places":     c.Maps != nil,
		"speech":     c.Speech != nil,
		"ocr":        c.Vision != nil,
		"archive":    c.Bucket != nil,
		"placeCache": c.PlaceCache != nil,
		"video":      c.Media != nil,
	}
}

func (c Clients) Close(log *logger.Logger) {
	closers := map[string]interface{ Close() error }{}
	if c.Speech != nil {
		closers["speech"] = c.Speech
	}
	if c.Vision != nil {
		closers["vision"] = c.Vision
	}
	if c.Bucket != nil {
		closers["bucket"] = c.Bucket
	}
	if c.PlaceCache != nil {
		closers["redis"] = c.PlaceCache
	}
	for name, cl := range closers {
		if err := cl.Close(); err != nil {
			log.Warn("Client close failed", "client", name, "error", err)
		}
	}
}
