package extraction

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		raw  RawEvent
		want error
	}{
		{"missing title", RawEvent{"date": "2024-03-16"}, ErrMissingField},
		{"blank title", RawEvent{"title": "   ", "date": "2024-03-16"}, ErrMissingField},
		{"non-string title", RawEvent{"title": 42.0, "date": "2024-03-16"}, ErrMissingField},
		{"missing date", RawEvent{"title": "Gig"}, ErrMissingField},
		{"null date", RawEvent{"title": "Gig", "date": nil}, ErrMissingField},
		{"garbage date", RawEvent{"title": "Gig", "date": "someday soon"}, ErrInvalidDate},
		{"impossible date", RawEvent{"title": "Gig", "date": "2024-02-30"}, ErrInvalidDate},
		{"time without colon", RawEvent{"title": "Gig", "date": "2024-03-16", "time": "3pm"}, ErrInvalidTime},
		{"time with four parts", RawEvent{"title": "Gig", "date": "2024-03-16", "time": "1:2:3:4"}, ErrInvalidTime},
		{"bad endTime", RawEvent{"title": "Gig", "date": "2024-03-16", "time": "15:00", "endTime": "late"}, ErrInvalidTime},
		{"numeric time", RawEvent{"title": "Gig", "date": "2024-03-16", "time": 15.0}, ErrInvalidTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err: want=%v got=%v", tc.want, err)
			}
		})
	}
}

func TestNormalizeCanonicalizes(t *testing.T) {
	ev, err := Normalize(RawEvent{
		"title":       "  Team sync ",
		"date":        "March 16, 2024",
		"time":        "15:00",
		"endTime":     "16:30:00",
		"location":    "  Room 204 ",
		"description": "  Weekly sync.  ",
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.Title != "Team sync" {
		t.Fatalf("title: want=%q got=%q", "Team sync", ev.Title)
	}
	if ev.Date != "2024-03-16" {
		t.Fatalf("date: want=2024-03-16 got=%q", ev.Date)
	}
	if ev.Time != "15:00:00" || ev.EndTime != "16:30:00" {
		t.Fatalf("times: got time=%q endTime=%q", ev.Time, ev.EndTime)
	}
	if ev.Location != "Room 204" {
		t.Fatalf("location: got=%q", ev.Location)
	}
	if ev.Description != "Weekly sync." {
		t.Fatalf("description: got=%q", ev.Description)
	}
}

func TestNormalizeDateFormats(t *testing.T) {
	cases := map[string]string{
		"2024-03-16":           "2024-03-16",
		"2024-03-16T15:00:00Z": "2024-03-16",
		"2024-03-16 09:30:00":  "2024-03-16",
		"03/16/2024":           "2024-03-16",
		"Apr 1, 2024":          "2024-04-01",
	}
	for in, want := range cases {
		ev, err := Normalize(RawEvent{"title": "x", "date": in})
		if err != nil {
			t.Fatalf("Normalize(date=%q): %v", in, err)
		}
		if ev.Date != want {
			t.Fatalf("date %q: want=%q got=%q", in, want, ev.Date)
		}
	}
}

func TestNormalizeBlankOptionalsAreAbsent(t *testing.T) {
	ev, err := Normalize(RawEvent{"title": "x", "date": "2024-04-01", "time": "  ", "endTime": nil, "location": "   "})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.Time != "" || ev.EndTime != "" || ev.Location != "" {
		t.Fatalf("expected absent optionals, got %+v", ev)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	long := strings.Repeat("word ", 40)
	inputs := []RawEvent{
		{"title": "A", "date": "2024-03-16", "time": "15:00"},
		{"title": "B", "date": "Apr 1, 2024", "description": long, "location": " Park "},
		{"title": "C", "date": "2024-03-16", "time": "09:00:00", "endTime": "10:00"},
	}
	for _, raw := range inputs {
		once, err := Normalize(raw)
		if err != nil {
			t.Fatalf("Normalize(%v): %v", raw, err)
		}
		twice, err := Normalize(ToRaw(once))
		if err != nil {
			t.Fatalf("Normalize(Normalize(%v)): %v", raw, err)
		}
		if once != twice {
			t.Fatalf("not idempotent: once=%+v twice=%+v", once, twice)
		}
	}
}

func TestCapWords(t *testing.T) {
	words := make([]string, 40)
	for i := range words {
		words[i] = "w"
	}
	got := CapWords(strings.Join(words, "  "), MaxDescriptionWords)
	want := strings.Join(words[:25], " ") + "..."
	if got != want {
		t.Fatalf("40 words: want=%q got=%q", want, got)
	}
	if again := CapWords(got, MaxDescriptionWords); again != got {
		t.Fatalf("second cap changed text: %q", again)
	}

	ten := "  one two three four five six seven eight nine ten  "
	if got := CapWords(ten, MaxDescriptionWords); got != strings.TrimSpace(ten) {
		t.Fatalf("10 words: got=%q", got)
	}
}
