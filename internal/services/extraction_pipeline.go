package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/snapcal-backend/internal/clients/gcp"
	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/modules/extraction"
	"github.com/yungbote/snapcal-backend/internal/modules/geo"
	"github.com/yungbote/snapcal-backend/internal/modules/media"
	"github.com/yungbote/snapcal-backend/internal/modules/urlmeta"
	"github.com/yungbote/snapcal-backend/internal/observability"
	"github.com/yungbote/snapcal-backend/internal/platform/apierr"
	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

// Stage is a step of one extraction run.
type Stage string

const (
	StageDispatching          Stage = "dispatching"
	StageExtractingMedia      Stage = "extracting_media"
	StageExtractingStructured Stage = "extracting_structured"
	StageResolvingLocation    Stage = "resolving_location"
	StageResolvingTimezone    Stage = "resolving_timezone"
	StageBuildingEvent        Stage = "building_event"
	StageCheckingConflicts    Stage = "checking_conflicts"
	StageDone                 Stage = "done"
	StageFailed               Stage = "failed"
)

const (
	InputImage = "image"
	InputURL   = "url"
	InputText  = "text"
)

const (
	DefaultConfidence = 0.8

	imageRefMaxChars   = 100
	textExcerptChars   = 500
	transcriptMaxChars = 500
)

type ExtractRequest struct {
	Type string `json:"type" binding:"required"`
	Data string `json:"data" binding:"required"`
}

// Transcriber turns an audio file into text. gcp.Speech satisfies it.
type Transcriber interface {
	TranscribeFile(ctx context.Context, path string) (string, error)
}

// ConflictChecker is the read half of the calendar collaborator.
type ConflictChecker interface {
	CheckConflicts(ctx context.Context, calendarID, startTime, endTime, timezone string) ([]domain.Conflict, error)
}

// ImageArchiver keeps a copy of uploaded flyers. gcp.BucketService satisfies it.
type ImageArchiver interface {
	ArchiveImage(ctx context.Context, key string, img []byte) (string, error)
}

type ExtractionPipelineConfig struct {
	DefaultTimezone string
	CalendarID      string
	FrameCount      int
	ExtractAudio    bool
	Confidence      float64
}

type ExtractionPipelineDeps struct {
	Extractor extraction.Extractor
	Video     media.VideoExtractor
	Metadata  urlmeta.Fetcher
	Places    geo.PlaceResolver
	Timezones geo.TimezoneResolver

	// Optional. Without a calendar every event reports no conflicts.
	Calendar ConflictChecker
	Speech   Transcriber
	Archive  ImageArchiver
	// OnStage observes stage transitions in order.
	OnStage func(Stage)
}

type ExtractionPipeline interface {
	Extract(ctx context.Context, req ExtractRequest) (*domain.ExtractResponse, error)
}

type extractionPipeline struct {
	log  *logger.Logger
	cfg  ExtractionPipelineConfig
	deps ExtractionPipelineDeps
}

func NewExtractionPipeline(log *logger.Logger, cfg ExtractionPipelineConfig, deps ExtractionPipelineDeps) (ExtractionPipeline, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	switch {
	case deps.Extractor == nil:
		return nil, fmt.Errorf("extractor required")
	case deps.Metadata == nil:
		return nil, fmt.Errorf("metadata fetcher required")
	case deps.Places == nil || deps.Timezones == nil:
		return nil, fmt.Errorf("place and timezone resolvers required")
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "America/Los_Angeles"
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	if cfg.FrameCount <= 0 {
		cfg.FrameCount = media.DefaultFrameCount
	}
	if cfg.Confidence <= 0 {
		cfg.Confidence = DefaultConfidence
	}
	return &extractionPipeline{
		log:  log.With("service", "ExtractionPipeline"),
		cfg:  cfg,
		deps: deps,
	}, nil
}

// run is the per-request state: provenance collected along the way.
type run struct {
	p        *extractionPipeline
	log      *logger.Logger
	stage    Stage
	metadata map[string]any
}

func (r *run) enter(s Stage) {
	r.stage = s
	r.log.Debug("Pipeline stage", "stage", string(s))
	if r.p.deps.OnStage != nil {
		r.p.deps.OnStage(s)
	}
}

func (p *extractionPipeline) Extract(ctx context.Context, req ExtractRequest) (*domain.ExtractResponse, error) {
	ctx = ctxutil.Default(ctx)
	ctx, span := observability.StartSpan(ctx, "pipeline.extract", attribute.String("input.type", req.Type))
	defer span.End()

	r := &run{
		p:        p,
		log:      p.log.With(ctxutil.LogFields(ctx)...),
		metadata: map[string]any{},
	}
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		r.metadata["requestId"] = td.RequestID
	}
	started := time.Now()

	r.enter(StageDispatching)
	source, err := sourceForInput(req.Type)
	if err != nil {
		r.enter(StageFailed)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if strings.TrimSpace(req.Data) == "" {
		r.enter(StageFailed)
		return nil, apierr.BadRequest("missing_data", fmt.Errorf("missing type or data"))
	}

	extracted, err := r.extract(ctx, req)
	if err != nil {
		r.enter(StageFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		r.log.Warn("Extraction failed", "type", req.Type, "stage", string(r.stage), "error", err)
		return nil, extractionAPIError(err)
	}

	location, timezone := r.resolvePlace(ctx, extracted.Location)

	r.enter(StageBuildingEvent)
	ev, err := BuildCanonicalEvent(extracted, location, timezone, source)
	if err != nil {
		r.enter(StageFailed)
		return nil, apierr.Internal("build_failed", err)
	}
	ev.SourceMetadata = r.metadata

	r.enter(StageCheckingConflicts)
	ev.Conflicts = r.conflicts(ctx, ev)

	r.enter(StageDone)
	r.log.Info("Event extracted",
		"type", req.Type,
		"all_day", ev.IsAllDay(),
		"has_location", ev.Location != nil,
		"conflicts", len(ev.Conflicts),
		"elapsed_ms", time.Since(started).Milliseconds(),
	)
	return &domain.ExtractResponse{Event: ev, Confidence: p.cfg.Confidence}, nil
}

func sourceForInput(kind string) (string, error) {
	switch kind {
	case InputImage:
		return domain.SourceFlyer, nil
	case InputURL:
		return domain.SourceURL, nil
	case InputText:
		return domain.SourceText, nil
	default:
		return "", apierr.BadRequest("invalid_type", fmt.Errorf("invalid type %q: must be image, url, or text", kind))
	}
}

func extractionAPIError(err error) error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if extraction.IsValidationError(err) || errors.Is(err, extraction.ErrNoEventInformation) {
		return apierr.Internal("no_event_found", err)
	}
	return apierr.Internal("extraction_failed", err)
}

func (r *run) extract(ctx context.Context, req ExtractRequest) (domain.ExtractedEvent, error) {
	switch req.Type {
	case InputImage:
		r.enter(StageExtractingStructured)
		r.metadata["imageUrl"] = truncate(req.Data, imageRefMaxChars)
		r.archiveImage(ctx, req.Data)
		return r.p.deps.Extractor.ExtractFromImage(ctx, req.Data)
	case InputText:
		r.enter(StageExtractingStructured)
		r.metadata["extractedText"] = truncate(req.Data, textExcerptChars)
		return r.p.deps.Extractor.ExtractFromText(ctx, req.Data)
	default:
		return r.extractURL(ctx, strings.TrimSpace(req.Data))
	}
}

func (r *run) extractURL(ctx context.Context, rawURL string) (domain.ExtractedEvent, error) {
	r.metadata["originalUrl"] = rawURL

	if r.p.deps.Video == nil || !media.IsVideoURL(rawURL) {
		md := r.p.deps.Metadata.Fetch(ctx, rawURL)
		r.recordLinkMetadata(md)
		r.enter(StageExtractingStructured)
		return r.p.deps.Extractor.ExtractFromText(ctx, MetadataBlob(md, rawURL))
	}

	r.enter(StageExtractingMedia)
	var (
		md       urlmeta.Metadata
		video    *media.VideoResult
		videoErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		md = r.p.deps.Metadata.Fetch(gctx, rawURL)
		return nil
	})
	g.Go(func() error {
		video, videoErr = r.p.deps.Video.Extract(gctx, rawURL, media.Options{
			FrameCount:   r.p.cfg.FrameCount,
			ExtractAudio: r.p.cfg.ExtractAudio && r.p.deps.Speech != nil,
		})
		return nil
	})
	_ = g.Wait()
	r.recordLinkMetadata(md)

	if videoErr != nil {
		r.log.Warn("Video extraction failed, falling back to link metadata", "url", rawURL, "error", videoErr)
		r.metadata["videoError"] = videoErr.Error()
		r.enter(StageExtractingStructured)
		return r.p.deps.Extractor.ExtractFromText(ctx, MetadataBlob(md, rawURL))
	}

	transcript := r.transcribe(ctx, video)
	videoMeta := map[string]any{
		"durationSeconds": video.Duration,
		"frames":          len(video.Frames),
	}
	if transcript != "" {
		videoMeta["transcriptExcerpt"] = truncate(transcript, transcriptMaxChars)
	}
	r.metadata["video"] = videoMeta

	r.enter(StageExtractingStructured)
	analyses := r.p.deps.Extractor.AnalyzeVideoFrames(ctx, video.FrameURIs())
	merged, err := extraction.MergeFrameAnalyses(analyses)
	if err == nil && present(merged["title"]) && present(merged["date"]) {
		ev, nerr := extraction.Normalize(merged)
		if nerr == nil {
			return ev, nil
		}
		r.log.Warn("Merged frames did not normalize, using text fallback", "error", nerr)
	}

	hints := extraction.FrameHints(analyses)
	if len(hints) > 0 {
		videoMeta["frameHints"] = hints
	}
	return r.p.deps.Extractor.ExtractFromText(ctx, VideoBlob(md, transcript, hints, rawURL))
}

func (r *run) transcribe(ctx context.Context, video *media.VideoResult) string {
	if video.AudioPath == "" || r.p.deps.Speech == nil {
		return ""
	}
	defer r.p.deps.Video.CleanupAudio(video.AudioPath)

	transcript, err := r.p.deps.Speech.TranscribeFile(ctx, video.AudioPath)
	if err != nil {
		r.log.Warn("Transcription failed, continuing without it", "error", err)
		return ""
	}
	return strings.TrimSpace(transcript)
}

func (r *run) recordLinkMetadata(md urlmeta.Metadata) {
	if md.IsEmpty() {
		r.metadata["linkMetadata"] = "unavailable"
		return
	}
	if md.ImageURL != "" {
		r.metadata["imageUrl"] = md.ImageURL
	}
	if md.SiteName != "" {
		r.metadata["siteName"] = md.SiteName
	}
	if md.Title != "" {
		r.metadata["title"] = md.Title
	}
}

func (r *run) archiveImage(ctx context.Context, image string) {
	if r.p.deps.Archive == nil {
		return
	}
	img, mime, err := extraction.DecodeDataURI(extraction.AsDataURI(image))
	if err != nil {
		r.log.Warn("Flyer not archived: undecodable image", "error", err)
		return
	}
	key := "flyers/" + uuid.NewString() + gcp.ExtForMime(mime)
	uri, err := r.p.deps.Archive.ArchiveImage(ctx, key, img)
	if err != nil {
		r.log.Warn("Flyer archive failed", "key", key, "error", err)
		return
	}
	r.metadata["imageUri"] = uri
}

// resolvePlace returns the final location and timezone. Every failure here
// degrades to a name-only location and the default zone.
func (r *run) resolvePlace(ctx context.Context, raw string) (*domain.Location, string) {
	r.enter(StageResolvingLocation)
	timezone := r.p.cfg.DefaultTimezone
	name := strings.TrimSpace(raw)
	if name == "" {
		return nil, timezone
	}

	place := r.p.deps.Places.Resolve(ctx, name)
	if place == nil {
		return &domain.Location{Name: name}, timezone
	}
	loc := &domain.Location{
		Name:        name,
		Address:     place.FormattedAddress,
		PlaceID:     place.PlaceID,
		Coordinates: &domain.Coordinates{Lat: place.Location.Lat, Lng: place.Location.Lng},
	}
	if place.Name != "" {
		loc.Name = place.Name
	}

	r.enter(StageResolvingTimezone)
	if tz := r.p.deps.Timezones.Resolve(ctx, place.Location.Lat, place.Location.Lng, time.Time{}); tz != nil && tz.TimeZoneID != "" {
		timezone = tz.TimeZoneID
	}
	return loc, timezone
}

func (r *run) conflicts(ctx context.Context, ev domain.CanonicalEvent) []domain.Conflict {
	if r.p.deps.Calendar == nil {
		return []domain.Conflict{}
	}
	end := ev.EndTime
	if end == "" {
		end = ev.StartTime
	}
	got, err := r.p.deps.Calendar.CheckConflicts(ctx, r.p.cfg.CalendarID, ev.StartTime, end, ev.Timezone)
	if err != nil {
		r.log.Warn("Conflict check failed, reporting none", "error", err)
		return []domain.Conflict{}
	}
	if got == nil {
		return []domain.Conflict{}
	}
	return got
}

// BuildCanonicalEvent assembles start and end. A missing time means all-day:
// start is the bare date and end is the next calendar day. A timed event
// without an explicit end keeps EndTime empty.
func BuildCanonicalEvent(ex domain.ExtractedEvent, loc *domain.Location, timezone, source string) (domain.CanonicalEvent, error) {
	ev := domain.CanonicalEvent{
		Title:       ex.Title,
		Description: ex.Description,
		Location:    loc,
		Timezone:    timezone,
		Source:      source,
		Conflicts:   []domain.Conflict{},
	}
	if ex.Time != "" {
		ev.StartTime = ex.Date + "T" + ex.Time
		if ex.EndTime != "" {
			ev.EndTime = ex.Date + "T" + ex.EndTime
		}
		return ev, nil
	}
	next, err := domain.NextCalendarDay(ex.Date)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}
	ev.StartTime = ex.Date
	ev.EndTime = next
	return ev, nil
}

// MetadataBlob is the text handed to the model for a non-video link.
func MetadataBlob(md urlmeta.Metadata, rawURL string) string {
	return strings.TrimSpace(md.Title + " " + md.Description + " " + rawURL)
}

// VideoBlob combines every signal a video produced for the text fallback.
func VideoBlob(md urlmeta.Metadata, transcript string, hints []string, rawURL string) string {
	var b strings.Builder
	line := func(label, v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if label != "" {
			b.WriteString(label)
			b.WriteString(": ")
		}
		b.WriteString(v)
		b.WriteByte('\n')
	}
	line("Title", md.Title)
	line("Description", md.Description)
	line("Transcript", transcript)
	if len(hints) > 0 {
		line("On-screen", strings.Join(hints, "\n"))
	}
	line("URL", rawURL)
	return strings.TrimSpace(b.String())
}

func present(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
