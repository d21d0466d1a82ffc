package extraction

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/yungbote/snapcal-backend/internal/domain"
)

// MaxDescriptionWords caps every description the pipeline emits.
const MaxDescriptionWords = 25

const dateLayout = "2006-01-02"

// RawEvent is the untrusted, loosely-typed record decoded from a model answer.
// Normalize is the only consumer allowed to read it.
type RawEvent map[string]any

// Normalize validates raw and rewrites it into the strict ExtractedEvent shape.
func Normalize(raw RawEvent) (domain.ExtractedEvent, error) {
	var out domain.ExtractedEvent

	title, ok := stringField(raw, "title")
	if !ok || title == "" {
		return out, fmt.Errorf("%w: title", ErrMissingField)
	}
	rawDate, ok := stringField(raw, "date")
	if !ok || rawDate == "" {
		return out, fmt.Errorf("%w: date", ErrMissingField)
	}
	date, err := normalizeDate(rawDate)
	if err != nil {
		return out, err
	}
	out.Title = title
	out.Date = date

	if out.Time, err = optionalClock(raw, "time"); err != nil {
		return domain.ExtractedEvent{}, err
	}
	if out.EndTime, err = optionalClock(raw, "endTime"); err != nil {
		return domain.ExtractedEvent{}, err
	}

	if desc, ok := stringField(raw, "description"); ok && desc != "" {
		out.Description = CapWords(desc, MaxDescriptionWords)
	}
	if loc, ok := stringField(raw, "location"); ok {
		out.Location = loc
	}
	return out, nil
}

// ToRaw turns a normalized event back into the untyped form Normalize accepts.
func ToRaw(ev domain.ExtractedEvent) RawEvent {
	raw := RawEvent{"title": ev.Title, "date": ev.Date}
	if ev.Time != "" {
		raw["time"] = ev.Time
	}
	if ev.EndTime != "" {
		raw["endTime"] = ev.EndTime
	}
	if ev.Description != "" {
		raw["description"] = ev.Description
	}
	if ev.Location != "" {
		raw["location"] = ev.Location
	}
	return raw
}

// CapWords trims s and, when it holds more than max whitespace-separated words,
// keeps the first max joined by single spaces plus "...".
func CapWords(s string, max int) string {
	s = strings.TrimSpace(s)
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ") + "..."
}

// stringField returns the trimmed string at key. Non-string values count as absent.
func stringField(raw RawEvent, key string) (string, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func normalizeDate(s string) (string, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.Format(dateLayout), nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t.UTC().Format(dateLayout), nil
}

func optionalClock(raw RawEvent, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrInvalidTime, key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	return normalizeClock(key, s)
}

func normalizeClock(key, s string) (string, error) {
	if !strings.Contains(s, ":") {
		return "", fmt.Errorf("%w: %s=%q", ErrInvalidTime, key, s)
	}
	switch parts := strings.Split(s, ":"); len(parts) {
	case 2:
		return s + ":00", nil
	case 3:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %s=%q", ErrInvalidTime, key, s)
	}
}
