package media

import "errors"

var (
	ErrDownloadFailed      = errors.New("video download failed")
	ErrDurationProbeFailed = errors.New("could not read video duration")
	ErrVideoTooLong        = errors.New("video exceeds maximum duration")
	ErrNoFramesExtracted   = errors.New("no frames could be extracted from video")
)
