package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/snapcal-backend/internal/data/repos"
	"github.com/yungbote/snapcal-backend/internal/modules/extraction"
	"github.com/yungbote/snapcal-backend/internal/modules/geo"
	"github.com/yungbote/snapcal-backend/internal/modules/media"
	"github.com/yungbote/snapcal-backend/internal/modules/urlmeta"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
	"github.com/yungbote/snapcal-backend/internal/services"
)

type Services struct {
	Pipeline services.ExtractionPipeline
	Saver    services.EventSaveService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, c Clients) (Services, error) {
	log.Info("Wiring services...")

	opts := extraction.Options{FrameConcurrency: cfg.FrameConcurrency}
	if c.Vision != nil {
		opts.OCR = c.Vision
	}
	extractor, err := extraction.New(log, c.OpenAI, opts)
	if err != nil {
		return Services{}, fmt.Errorf("init extractor: %w", err)
	}

	var video media.VideoExtractor
	if c.Media != nil {
		if video, err = media.NewVideoExtractor(log, c.Media); err != nil {
			return Services{}, fmt.Errorf("init video extractor: %w", err)
		}
	}

	placeOpts := geo.PlaceResolverOptions{TTL: cfg.PlaceCacheTTL}
	var (
		searcher geo.PlaceSearcher
		tzLookup geo.TimezoneLookup
	)
	if c.Maps != nil {
		searcher, tzLookup = c.Maps, c.Maps
	}
	if c.PlaceCache != nil {
		placeOpts.Shared = c.PlaceCache
	}

	deps := services.ExtractionPipelineDeps{
		Extractor: extractor,
		Video:     video,
		Metadata:  urlmeta.NewFetcher(log, urlmeta.Config{Timeout: cfg.MetadataTimeout}),
		Places:    geo.NewPlaceResolver(log, searcher, placeOpts),
		Timezones: geo.NewTimezoneResolver(log, tzLookup, 0),
	}
	if c.Calendar != nil {
		deps.Calendar = c.Calendar
	}
	if c.Speech != nil {
		deps.Speech = c.Speech
	}
	if c.Bucket != nil {
		deps.Archive = c.Bucket
	}

	pipeline, err := services.NewExtractionPipeline(log, services.ExtractionPipelineConfig{
		DefaultTimezone: cfg.DefaultTimezone,
		CalendarID:      cfg.CalendarID,
		FrameCount:      cfg.VideoFrameCount,
		ExtractAudio:    c.Speech != nil,
	}, deps)
	if err != nil {
		return Services{}, fmt.Errorf("init extraction pipeline: %w", err)
	}

	var writer services.CalendarWriter
	if c.Calendar != nil {
		writer = c.Calendar
	}
	saver := services.NewEventSaveService(log, writer, repos.NewEventRecordRepo(db, log), cfg.CalendarID)

	return Services{Pipeline: pipeline, Saver: saver}, nil
}
