package extraction

import (
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/snapcal-backend/internal/domain"
)

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func TestMergeTakesFirstNonNullInFrameOrder(t *testing.T) {
	frames := []domain.FrameAnalysis{
		{HasEventInfo: boolp(true), Date: strp("2024-05-01")},
		{HasEventInfo: boolp(true), Title: strp("X")},
		{HasEventInfo: boolp(true), Title: strp("Y"), Location: strp("Hall B")},
	}
	merged, err := MergeFrameAnalyses(frames)
	if err != nil {
		t.Fatalf("MergeFrameAnalyses: %v", err)
	}
	if merged["title"] != "X" {
		t.Fatalf("title: want=X got=%v", merged["title"])
	}
	if merged["date"] != "2024-05-01" || merged["location"] != "Hall B" {
		t.Fatalf("unexpected merge: %v", merged)
	}
	if merged["time"] != nil || merged["description"] != nil {
		t.Fatalf("absent fields must stay nil: %v", merged)
	}
}

func TestMergeIgnoresFramesWithoutExplicitEventInfo(t *testing.T) {
	frames := []domain.FrameAnalysis{
		{Title: strp("Unflagged"), Text: "noise"},
		{HasEventInfo: boolp(false), Title: strp("Negative")},
		{HasEventInfo: boolp(true), Title: strp("Real"), Date: strp("2024-05-01")},
	}
	merged, err := MergeFrameAnalyses(frames)
	if err != nil {
		t.Fatalf("MergeFrameAnalyses: %v", err)
	}
	if merged["title"] != "Real" {
		t.Fatalf("title: want=Real got=%v", merged["title"])
	}
}

func TestMergeFallsBackToRawTextWhenNothingInformative(t *testing.T) {
	frames := []domain.FrameAnalysis{
		{HasEventInfo: boolp(false), Text: "Summer Fest"},
		{HasEventInfo: boolp(false), Text: ""},
		{Text: "June 3 at the pier"},
	}
	merged, err := MergeFrameAnalyses(frames)
	if err != nil {
		t.Fatalf("MergeFrameAnalyses: %v", err)
	}
	if merged["title"] != nil || merged["date"] != nil {
		t.Fatalf("title/date must be nil: %v", merged)
	}
	if merged["description"] != "Summer Fest June 3 at the pier" {
		t.Fatalf("description: got=%v", merged["description"])
	}

	_, err = Normalize(merged)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("normalizing the fallback must fail with MissingField, got=%v", err)
	}
}

func TestMergeFallbackDescriptionIsWordCapped(t *testing.T) {
	frames := []domain.FrameAnalysis{
		{HasEventInfo: boolp(false), Text: strings.Repeat("a ", 20)},
		{HasEventInfo: boolp(false), Text: strings.Repeat("b ", 20)},
	}
	merged, err := MergeFrameAnalyses(frames)
	if err != nil {
		t.Fatalf("MergeFrameAnalyses: %v", err)
	}
	desc, _ := merged["description"].(string)
	if !strings.HasSuffix(desc, "...") || len(strings.Fields(desc)) != MaxDescriptionWords {
		t.Fatalf("description not capped: %q", desc)
	}
}

func TestMergeNoTextAtAll(t *testing.T) {
	frames := []domain.FrameAnalysis{
		{HasEventInfo: boolp(false)},
		{HasEventInfo: boolp(false), Text: "   "},
	}
	if _, err := MergeFrameAnalyses(frames); !errors.Is(err, ErrNoEventInformation) {
		t.Fatalf("want ErrNoEventInformation got=%v", err)
	}
	if _, err := MergeFrameAnalyses(nil); !errors.Is(err, ErrNoEventInformation) {
		t.Fatalf("empty input: want ErrNoEventInformation got=%v", err)
	}
}

func TestMergeBackfillsDescriptionFromInformativeText(t *testing.T) {
	frames := []domain.FrameAnalysis{
		{HasEventInfo: boolp(true), Title: strp("Open Mic"), Text: "OPEN MIC"},
		{HasEventInfo: boolp(false), Text: "ignored"},
		{HasEventInfo: boolp(true), Text: "every thursday"},
	}
	merged, err := MergeFrameAnalyses(frames)
	if err != nil {
		t.Fatalf("MergeFrameAnalyses: %v", err)
	}
	if merged["description"] != "OPEN MIC every thursday" {
		t.Fatalf("description: got=%v", merged["description"])
	}
}

func TestMergeKeepsExplicitDescription(t *testing.T) {
	frames := []domain.FrameAnalysis{
		{HasEventInfo: boolp(true), Title: strp("Open Mic"), Description: strp("Bring a guitar"), Text: "OPEN MIC"},
	}
	merged, err := MergeFrameAnalyses(frames)
	if err != nil {
		t.Fatalf("MergeFrameAnalyses: %v", err)
	}
	if merged["description"] != "Bring a guitar" {
		t.Fatalf("description: got=%v", merged["description"])
	}
}

func TestFrameFromRawAcceptsRawTextAlias(t *testing.T) {
	fa := frameFromRaw(RawEvent{"title": "null", "rawText": "hello", "hasEventInfo": true})
	if fa.Title != nil {
		t.Fatalf("string null must read as absent")
	}
	if fa.Text != "hello" || fa.HasEventInfo == nil || !*fa.HasEventInfo {
		t.Fatalf("unexpected frame: %+v", fa)
	}
}
