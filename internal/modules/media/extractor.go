package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
	"github.com/yungbote/snapcal-backend/internal/platform/localmedia"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

const (
	MaxDurationSeconds   = 600
	LongVideoSeconds     = 300
	LongVideoFrameCount  = 3
	DefaultFrameCount    = 5
	MaxAudioSeconds      = 240
	audioSampleRateHertz = 16000
)

type Options struct {
	FrameCount   int
	ExtractAudio bool
}

type Frame struct {
	Timestamp float64
	// DataURI is data:image/jpeg;base64,...
	DataURI string
}

type VideoResult struct {
	Frames []Frame
	// AudioPath is empty when audio was not requested or could not be extracted.
	// The caller owns the file and releases it with CleanupAudio.
	AudioPath string
	Duration  float64
}

// FrameURIs returns the frames' data URIs in timestamp order.
func (r *VideoResult) FrameURIs() []string {
	out := make([]string, 0, len(r.Frames))
	for _, f := range r.Frames {
		out = append(out, f.DataURI)
	}
	return out
}

type VideoExtractor interface {
	Extract(ctx context.Context, videoURL string, opts Options) (*VideoResult, error)
	CleanupAudio(path string)
}

type videoExtractor struct {
	log   *logger.Logger
	tools localmedia.Tools
}

func NewVideoExtractor(log *logger.Logger, tools localmedia.Tools) (VideoExtractor, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if tools == nil {
		return nil, fmt.Errorf("media tools required")
	}
	return &videoExtractor{log: log.With("service", "VideoExtractor"), tools: tools}, nil
}

func (v *videoExtractor) Extract(ctx context.Context, videoURL string, opts Options) (*VideoResult, error) {
	ctx = ctxutil.Default(ctx)
	start := time.Now()

	videoPath, err := v.tools.DownloadVideo(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer v.tools.Remove(videoPath)

	duration, err := v.tools.ProbeDuration(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDurationProbeFailed, err)
	}
	if duration > MaxDurationSeconds {
		return nil, fmt.Errorf("%w: %.0fs > %ds", ErrVideoTooLong, duration, MaxDurationSeconds)
	}

	frameCount := opts.FrameCount
	if frameCount <= 0 {
		frameCount = DefaultFrameCount
	}
	if duration > LongVideoSeconds && frameCount > LongVideoFrameCount {
		frameCount = LongVideoFrameCount
	}

	res := &VideoResult{Duration: duration}
	for _, ts := range FrameTimestamps(duration, frameCount) {
		img, err := v.tools.ExtractFrame(ctx, videoPath, ts)
		if err != nil {
			v.log.Warn("Frame extraction failed", "timestamp", ts, "error", err)
			continue
		}
		res.Frames = append(res.Frames, Frame{
			Timestamp: ts,
			DataURI:   "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
		})
	}

	if opts.ExtractAudio {
		audioPath, err := v.tools.ExtractAudioTrack(ctx, videoPath, localmedia.AudioExtractOptions{
			SampleRateHz: audioSampleRateHertz,
			Channels:     1,
			MaxSeconds:   MaxAudioSeconds,
		})
		if err != nil {
			v.log.Warn("Audio extraction failed, continuing without transcript", "error", err)
		} else {
			res.AudioPath = audioPath
		}
	}

	if len(res.Frames) == 0 {
		v.CleanupAudio(res.AudioPath)
		return nil, ErrNoFramesExtracted
	}

	v.log.Info("Video extracted",
		"duration_s", duration,
		"frames", len(res.Frames),
		"has_audio", res.AudioPath != "",
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (v *videoExtractor) CleanupAudio(path string) {
	if path == "" {
		return
	}
	v.tools.Remove(path)
}
