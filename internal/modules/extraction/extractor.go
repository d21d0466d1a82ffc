package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/snapcal-backend/internal/clients/openai"
	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

// TextDetector reads visible text off an image. Used only as a prompt hint.
type TextDetector interface {
	DetectText(ctx context.Context, img []byte, mimeType string) (string, error)
}

type Extractor interface {
	ExtractFromImage(ctx context.Context, image string) (domain.ExtractedEvent, error)
	ExtractFromText(ctx context.Context, text string) (domain.ExtractedEvent, error)
	AnalyzeVideoFrames(ctx context.Context, frames []string) []domain.FrameAnalysis
	ExtractFromVideoFrames(ctx context.Context, frames []string) (domain.ExtractedEvent, error)
}

type Options struct {
	// OCR is optional; nil disables the flyer text hint.
	OCR TextDetector
	// Now supplies "today" for relative dates. Defaults to time.Now.
	Now func() time.Time
	// FrameConcurrency bounds in-flight frame calls. 0 runs every frame at once.
	FrameConcurrency int
	ImageDetail      string
}

type extractor struct {
	log   *logger.Logger
	model openai.Client
	opts  Options
}

func New(log *logger.Logger, model openai.Client, opts Options) (Extractor, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if model == nil {
		return nil, fmt.Errorf("model client required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ImageDetail == "" {
		opts.ImageDetail = "high"
	}
	return &extractor{
		log:   log.With("service", "EventExtractor"),
		model: model,
		opts:  opts,
	}, nil
}

func (e *extractor) ExtractFromImage(ctx context.Context, image string) (domain.ExtractedEvent, error) {
	ctx = ctxutil.Default(ctx)
	dataURI := AsDataURI(image)
	if dataURI == "" {
		return domain.ExtractedEvent{}, fmt.Errorf("%w: empty image", ErrExtractionFailed)
	}

	text, err := e.model.GenerateTextWithImages(ctx, systemPrompt, imagePrompt(e.opts.Now(), e.ocrHint(ctx, dataURI)), []openai.ImageInput{
		{ImageURL: dataURI, Detail: e.opts.ImageDetail},
	})
	if err != nil {
		return domain.ExtractedEvent{}, fmt.Errorf("%w: image model call: %v", ErrExtractionFailed, err)
	}
	return e.finish(text)
}

func (e *extractor) ExtractFromText(ctx context.Context, text string) (domain.ExtractedEvent, error) {
	ctx = ctxutil.Default(ctx)
	if strings.TrimSpace(text) == "" {
		return domain.ExtractedEvent{}, fmt.Errorf("%w: empty text", ErrExtractionFailed)
	}
	answer, err := e.model.GenerateText(ctx, systemPrompt, textPrompt(e.opts.Now(), text))
	if err != nil {
		return domain.ExtractedEvent{}, fmt.Errorf("%w: text model call: %v", ErrExtractionFailed, err)
	}
	return e.finish(answer)
}

func (e *extractor) ExtractFromVideoFrames(ctx context.Context, frames []string) (domain.ExtractedEvent, error) {
	merged, err := MergeFrameAnalyses(e.AnalyzeVideoFrames(ctx, frames))
	if err != nil {
		return domain.ExtractedEvent{}, err
	}
	return normalizeOrFail(merged)
}

func (e *extractor) finish(answer string) (domain.ExtractedEvent, error) {
	raw, err := decodeRawEvent(answer)
	if err != nil {
		e.log.Warn("Model answer had no usable JSON", "answer", answer)
		return domain.ExtractedEvent{}, err
	}
	return normalizeOrFail(raw)
}

func normalizeOrFail(raw RawEvent) (domain.ExtractedEvent, error) {
	ev, err := Normalize(raw)
	if err != nil {
		return domain.ExtractedEvent{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return ev, nil
}

func (e *extractor) ocrHint(ctx context.Context, dataURI string) string {
	if e.opts.OCR == nil {
		return ""
	}
	img, mime, err := DecodeDataURI(dataURI)
	if err != nil {
		e.log.Debug("Skipping OCR hint", "error", err)
		return ""
	}
	text, err := e.opts.OCR.DetectText(ctx, img, mime)
	if err != nil {
		e.log.Warn("OCR hint failed", "error", err)
		return ""
	}
	return text
}

// AsDataURI accepts either a data URI or bare base64 and returns a data URI.
func AsDataURI(image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return ""
	}
	if strings.HasPrefix(image, "data:") {
		return image
	}
	return "data:image/jpeg;base64," + image
}

// DecodeDataURI splits a base64 data URI into its bytes and mime type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, "", fmt.Errorf("data URI has no payload")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("data URI is not base64")
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URI: %w", err)
	}
	return b, mime, nil
}
