package extraction

import "errors"

var (
	ErrMissingField       = errors.New("missing required field")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidTime        = errors.New("invalid time")
	ErrExtractionFailed   = errors.New("extraction failed")
	ErrNoEventInformation = errors.New("no event information found in video frames")
)

// IsValidationError reports whether err is a rejection of the extracted record
// rather than a failure to talk to the model.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidTime)
}
