package gcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

type Speech interface {
	// TranscribeFile reads a local audio file (mono 16 kHz WAV from the media
	// tools) and returns the joined transcript.
	TranscribeFile(ctx context.Context, path string) (string, error)
	TranscribeAudioBytes(ctx context.Context, audio []byte, mimeType string, cfg SpeechConfig) (*SpeechResult, error)
	Close() error
}

type SpeechConfig struct {
	LanguageCode string
	Model        string

	EnableAutomaticPunctuation bool

	SampleRateHertz   int
	AudioChannelCount int

	Encoding speechpb.RecognitionConfig_AudioEncoding
}

type SpeechResult struct {
	Provider    string   `json:"provider"`
	PrimaryText string   `json:"primary_text"`
	Confidence  float64  `json:"confidence,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Inline recognition content is capped by the API at 10 MB.
const maxInlineAudioBytes = 10 << 20

type speechService struct {
	log          *logger.Logger
	client       *speech.Client
	maxRetries   int
	languageCode string
	timeout      time.Duration
}

func NewSpeech(log *logger.Logger, languageCode string, opts ...option.ClientOption) (Speech, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	c, err := speech.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	if languageCode == "" {
		languageCode = "en-US"
	}
	return &speechService{
		log:          log.With("service", "gcp.Speech"),
		client:       c,
		maxRetries:   3,
		languageCode: languageCode,
		timeout:      2 * time.Minute,
	}, nil
}

func (s *speechService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechService) TranscribeFile(ctx context.Context, path string) (string, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if len(audio) > maxInlineAudioBytes {
		return "", fmt.Errorf("audio too large for inline recognition: %d bytes", len(audio))
	}
	res, err := s.TranscribeAudioBytes(ctx, audio, mimeForPath(path), SpeechConfig{
		LanguageCode:               s.languageCode,
		EnableAutomaticPunctuation: true,
		SampleRateHertz:            16000,
		AudioChannelCount:          1,
	})
	if err != nil {
		return "", err
	}
	return res.PrimaryText, nil
}

func (s *speechService) TranscribeAudioBytes(ctx context.Context, audio []byte, mimeType string, cfg SpeechConfig) (*SpeechResult, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if len(audio) == 0 {
		return &SpeechResult{Provider: "gcp_speech", PrimaryText: ""}, nil
	}

	req := &speechpb.LongRunningRecognizeRequest{
		Config: buildSpeechRecognitionConfig(mimeType, cfg),
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	}

	resp, err := s.retryLR(ctx, func() (*speechpb.LongRunningRecognizeResponse, error) {
		op, err := s.client.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("speech longrunningrecognize: %w", err)
	}

	out := parseSpeechResponse(resp)
	s.log.Debug("Audio transcribed", "chars", len(out.PrimaryText), "confidence", out.Confidence)
	return out, nil
}

func buildSpeechRecognitionConfig(mimeType string, cfg SpeechConfig) *speechpb.RecognitionConfig {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	enc := cfg.Encoding
	if enc == speechpb.RecognitionConfig_ENCODING_UNSPECIFIED {
		enc = inferSpeechEncoding(mimeType)
	}
	return &speechpb.RecognitionConfig{
		LanguageCode:               cfg.LanguageCode,
		Model:                      cfg.Model,
		EnableAutomaticPunctuation: cfg.EnableAutomaticPunctuation,
		Encoding:                   enc,
		SampleRateHertz:            int32(max0(cfg.SampleRateHertz)),
		AudioChannelCount:          int32(max0(cfg.AudioChannelCount)),
	}
}

func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".mp3":
		return "audio/mpeg"
	case ".ogg", ".opus":
		return "audio/ogg"
	default:
		return ""
	}
}

func inferSpeechEncoding(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.Contains(m, "wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mp3"), strings.Contains(m, "mpeg"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "ogg"):
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func parseSpeechResponse(resp *speechpb.LongRunningRecognizeResponse) *SpeechResult {
	out := &SpeechResult{Provider: "gcp_speech"}
	if resp == nil || len(resp.Results) == 0 {
		return out
	}

	var full strings.Builder
	var confSum float64
	n := 0
	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		alt := r.Alternatives[0]
		text := strings.TrimSpace(alt.Transcript)
		if text == "" {
			continue
		}
		if full.Len() > 0 {
			full.WriteString(" ")
		}
		full.WriteString(text)
		if alt.Confidence > 0 {
			confSum += float64(alt.Confidence)
			n++
		}
	}
	out.PrimaryText = full.String()
	if n > 0 {
		out.Confidence = confSum / float64(n)
	}
	return out
}

func (s *speechService) retryLR(ctx context.Context, fn func() (*speechpb.LongRunningRecognizeResponse, error)) (*speechpb.LongRunningRecognizeResponse, error) {
	backoff := 750 * time.Millisecond
	var last error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, err
		}
		if attempt == s.maxRetries {
			break
		}
		s.log.Warn("Speech request retrying", "attempt", attempt+1, "code", code.String())
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, last
}

func max0(x int) int {
	if x < 0 {
		return 0
	}
	return x
}
