package extraction

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/snapcal-backend/internal/clients/openai"
	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
)

// AnalyzeVideoFrames asks the model about every frame concurrently. The result
// keeps input order; a failed frame becomes a non-informative analysis.
func (e *extractor) AnalyzeVideoFrames(ctx context.Context, frames []string) []domain.FrameAnalysis {
	ctx = ctxutil.Default(ctx)
	out := make([]domain.FrameAnalysis, len(frames))
	now := e.opts.Now()

	g, gctx := errgroup.WithContext(ctx)
	if e.opts.FrameConcurrency > 0 {
		g.SetLimit(e.opts.FrameConcurrency)
	}
	for i, frame := range frames {
		g.Go(func() error {
			fa, err := e.analyzeFrame(gctx, frame, framePrompt(now, i, len(frames)))
			if err != nil {
				e.log.Warn("Frame analysis failed", "frame", i, "error", err)
				fa = emptyFrame()
			}
			out[i] = fa
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *extractor) analyzeFrame(ctx context.Context, frame, prompt string) (domain.FrameAnalysis, error) {
	dataURI := AsDataURI(frame)
	if dataURI == "" {
		return domain.FrameAnalysis{}, fmt.Errorf("empty frame")
	}
	answer, err := e.model.GenerateTextWithImages(ctx, systemPrompt, prompt, []openai.ImageInput{
		{ImageURL: dataURI, Detail: e.opts.ImageDetail},
	})
	if err != nil {
		return domain.FrameAnalysis{}, err
	}
	raw, err := decodeRawEvent(answer)
	if err != nil {
		return domain.FrameAnalysis{}, err
	}
	return frameFromRaw(raw), nil
}

func emptyFrame() domain.FrameAnalysis {
	no := false
	return domain.FrameAnalysis{HasEventInfo: &no}
}

func frameFromRaw(raw RawEvent) domain.FrameAnalysis {
	fa := domain.FrameAnalysis{
		Title:       optString(raw, "title"),
		Date:        optString(raw, "date"),
		Time:        optString(raw, "time"),
		EndTime:     optString(raw, "endTime"),
		Location:    optString(raw, "location"),
		Description: optString(raw, "description"),
	}
	if t, ok := stringField(raw, "text"); ok && t != "" {
		fa.Text = t
	} else if t, ok := stringField(raw, "rawText"); ok {
		fa.Text = t
	}
	if b, ok := raw["hasEventInfo"].(bool); ok {
		fa.HasEventInfo = &b
	}
	return fa
}

func optString(raw RawEvent, key string) *string {
	s, ok := stringField(raw, key)
	if !ok || s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

// MergeFrameAnalyses combines per-frame answers by first-non-null in frame
// order. Only frames that explicitly report hasEventInfo=true contribute fields.
func MergeFrameAnalyses(analyses []domain.FrameAnalysis) (RawEvent, error) {
	informative := make([]domain.FrameAnalysis, 0, len(analyses))
	for _, fa := range analyses {
		if fa.HasEventInfo != nil && *fa.HasEventInfo {
			informative = append(informative, fa)
		}
	}

	if len(informative) == 0 {
		text := joinFrameText(analyses)
		if text == "" {
			return nil, ErrNoEventInformation
		}
		return RawEvent{
			"title":       nil,
			"date":        nil,
			"time":        nil,
			"endTime":     nil,
			"location":    nil,
			"description": CapWords(text, MaxDescriptionWords),
		}, nil
	}

	merged := RawEvent{
		"title":    firstNonNull(informative, func(fa domain.FrameAnalysis) *string { return fa.Title }),
		"date":     firstNonNull(informative, func(fa domain.FrameAnalysis) *string { return fa.Date }),
		"time":     firstNonNull(informative, func(fa domain.FrameAnalysis) *string { return fa.Time }),
		"endTime":  firstNonNull(informative, func(fa domain.FrameAnalysis) *string { return fa.EndTime }),
		"location": firstNonNull(informative, func(fa domain.FrameAnalysis) *string { return fa.Location }),
	}
	if desc := firstNonNull(informative, func(fa domain.FrameAnalysis) *string { return fa.Description }); desc != nil {
		merged["description"] = CapWords(desc.(string), MaxDescriptionWords)
	} else {
		merged["description"] = nil
	}

	if (merged["title"] == nil || merged["date"] == nil) && merged["description"] == nil {
		if text := joinFrameText(informative); text != "" {
			merged["description"] = CapWords(text, MaxDescriptionWords)
		}
	}
	return merged, nil
}

// firstNonNull returns the first present value as an any holding a string,
// or an untyped nil so map lookups compare equal to nil.
func firstNonNull(frames []domain.FrameAnalysis, field func(domain.FrameAnalysis) *string) any {
	for _, fa := range frames {
		if v := field(fa); v != nil && strings.TrimSpace(*v) != "" {
			return strings.TrimSpace(*v)
		}
	}
	return nil
}

func joinFrameText(frames []domain.FrameAnalysis) string {
	parts := make([]string, 0, len(frames))
	for _, fa := range frames {
		if t := strings.TrimSpace(fa.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// FrameHints summarizes what each informative frame saw, for the text fallback
// prompt and the provenance record.
func FrameHints(analyses []domain.FrameAnalysis) []string {
	hints := make([]string, 0, len(analyses))
	for i, fa := range analyses {
		var parts []string
		add := func(label string, v *string) {
			if v != nil && *v != "" {
				parts = append(parts, label+": "+*v)
			}
		}
		add("title", fa.Title)
		add("date", fa.Date)
		add("time", fa.Time)
		add("endTime", fa.EndTime)
		add("location", fa.Location)
		add("description", fa.Description)
		if fa.Text != "" {
			parts = append(parts, "text: "+fa.Text)
		}
		if len(parts) == 0 {
			continue
		}
		hints = append(hints, fmt.Sprintf("Frame %d: %s", i+1, strings.Join(parts, "; ")))
	}
	return hints
}
