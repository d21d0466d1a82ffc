package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

type Vision interface {
	OCRImageBytes(ctx context.Context, img []byte, mimeType string) (*VisionOCRResult, error)
	// DetectText returns the collapsed text found on the image.
	DetectText(ctx context.Context, img []byte, mimeType string) (string, error)
	Close() error
}

type VisionOCRResult struct {
	Provider    string  `json:"provider"`
	MimeType    string  `json:"mime_type,omitempty"`
	PrimaryText string  `json:"primary_text"`
	Confidence  float64 `json:"confidence"`
}

type visionService struct {
	log          *logger.Logger
	visionClient *vision.ImageAnnotatorClient
	timeout      time.Duration
	maxChars     int
}

func NewVision(log *logger.Logger, opts ...option.ClientOption) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	vClient, err := vision.NewImageAnnotatorClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &visionService{
		log:          log.With("service", "gcp.Vision"),
		visionClient: vClient,
		timeout:      15 * time.Second,
		maxChars:     2000,
	}, nil
}

func (s *visionService) Close() error {
	if s == nil || s.visionClient == nil {
		return nil
	}
	return s.visionClient.Close()
}

func (s *visionService) DetectText(ctx context.Context, img []byte, mimeType string) (string, error) {
	res, err := s.OCRImageBytes(ctx, img, mimeType)
	if err != nil {
		return "", err
	}
	text := res.PrimaryText
	if len(text) > s.maxChars {
		text = text[:s.maxChars]
	}
	return text, nil
}

func (s *visionService) OCRImageBytes(ctx context.Context, img []byte, mimeType string) (*VisionOCRResult, error) {
	if len(img) == 0 {
		return &VisionOCRResult{Provider: "gcp_vision", MimeType: mimeType}, nil
	}

	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
		},
	}
	br := &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{req}}
	resp, err := s.visionClient.BatchAnnotateImages(ctx, br)
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	return parseOCRResponse(resp, mimeType)
}

func parseOCRResponse(resp *visionpb.BatchAnnotateImagesResponse, mimeType string) (*VisionOCRResult, error) {
	out := &VisionOCRResult{Provider: "gcp_vision", MimeType: mimeType}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return out, nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}
	fta := r0.FullTextAnnotation
	if fta == nil || strings.TrimSpace(fta.Text) == "" {
		return out, nil
	}
	out.PrimaryText = collapseWhitespace(fta.Text)

	var sum float64
	n := 0
	for _, pg := range fta.Pages {
		if pg == nil {
			continue
		}
		for _, b := range pg.Blocks {
			if b != nil && b.Confidence > 0 {
				sum += float64(b.Confidence)
				n++
			}
		}
	}
	if n > 0 {
		out.Confidence = sum / float64(n)
	}
	return out, nil
}
