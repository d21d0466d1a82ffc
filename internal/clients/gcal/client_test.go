package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(context.Background(), logger.NewNop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestConflictWindowTimed(t *testing.T) {
	w, err := ConflictWindow("2024-03-15T19:00:00", "2024-03-15T19:00:00", time.UTC)
	if err != nil {
		t.Fatalf("ConflictWindow: %v", err)
	}
	if w.AllDay {
		t.Fatalf("timed start must not be all-day")
	}
	if got := w.Min.Format(time.RFC3339); got != "2024-03-15T17:00:00Z" {
		t.Fatalf("min: got=%s", got)
	}
	// end == start means no explicit end: one hour, then +2h of slack.
	if got := w.Max.Format(time.RFC3339); got != "2024-03-15T22:00:00Z" {
		t.Fatalf("max: got=%s", got)
	}
}

func TestConflictWindowAllDay(t *testing.T) {
	w, err := ConflictWindow("2024-03-15", "2024-03-16", time.UTC)
	if err != nil {
		t.Fatalf("ConflictWindow: %v", err)
	}
	if !w.AllDay {
		t.Fatalf("date-only start must be all-day")
	}
	if w.Start.Format("2006-01-02") != "2024-03-15" || w.End.Format("2006-01-02") != "2024-03-16" {
		t.Fatalf("requested span: got=%v..%v", w.Start, w.End)
	}
	if _, err := ConflictWindow("soon", "", time.UTC); !errors.Is(err, ErrInvalidEventTime) {
		t.Fatalf("want ErrInvalidEventTime got=%v", err)
	}
}

func TestOverlaps(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2024, 3, 15, h, 0, 0, 0, time.UTC) }
	end := func(h int) *time.Time { v := at(h); return &v }
	cases := []struct {
		name string
		s    time.Time
		e    *time.Time
		want bool
	}{
		{"inside", at(19), end(20), true},
		{"ends at start", at(17), end(19), false},
		{"starts at end", at(20), end(21), false},
		{"spans", at(18), end(22), true},
		{"instant inside", at(19), nil, false},
	}
	for _, tc := range cases {
		if got := Overlaps(at(19), at(20), tc.s, tc.e); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}

func TestFilterConflicts(t *testing.T) {
	w, _ := ConflictWindow("2024-03-15T19:00:00", "", time.UTC)
	items := []*calendar.Event{
		{Id: "a", Summary: "Dinner", Start: &calendar.EventDateTime{DateTime: "2024-03-15T19:30:00Z"}, End: &calendar.EventDateTime{DateTime: "2024-03-15T21:00:00Z"}},
		{Id: "b", Start: &calendar.EventDateTime{Date: "2024-03-15"}, End: &calendar.EventDateTime{Date: "2024-03-16"}},
		{Id: "c", Summary: "Gym", Start: &calendar.EventDateTime{DateTime: "2024-03-15T17:00:00Z"}, End: &calendar.EventDateTime{DateTime: "2024-03-15T18:00:00Z"}},
		{Id: "d"},
		nil,
	}
	got := FilterConflicts(items, w, "2024-03-15T19:00:00", time.UTC)
	if len(got) != 2 {
		t.Fatalf("conflicts: want=2 got=%d (%v)", len(got), got)
	}
	if got[0].EventID != "a" || got[0].StartTime != "2024-03-15T19:30:00Z" {
		t.Fatalf("first conflict: got=%+v", got[0])
	}
	if got[1].Title != "Untitled" || got[1].StartTime != "2024-03-15" {
		t.Fatalf("untitled all-day conflict: got=%+v", got[1])
	}
	if empty := FilterConflicts(nil, w, "", time.UTC); empty == nil || len(empty) != 0 {
		t.Fatalf("no candidates must give an empty non-nil slice")
	}
}

func TestBuildEventAllDay(t *testing.T) {
	ev, err := BuildEvent(domain.CanonicalEvent{
		Title:     "Farmers Market",
		StartTime: "2024-03-15",
		Timezone:  "America/Los_Angeles",
		Location:  &domain.Location{Name: "Ferry Building"},
	})
	if err != nil {
		t.Fatalf("BuildEvent: %v", err)
	}
	if ev.Start.Date != "2024-03-15" || ev.End.Date != "2024-03-16" || ev.Start.DateTime != "" {
		t.Fatalf("all-day dates: start=%+v end=%+v", ev.Start, ev.End)
	}
	if ev.Location != "Ferry Building" {
		t.Fatalf("location falls back to name: got=%q", ev.Location)
	}
	if ev.Reminders == nil || !ev.Reminders.UseDefault {
		t.Fatalf("default reminders expected")
	}
}

func TestBuildEventTimedDefaultsOneHour(t *testing.T) {
	ev, err := BuildEvent(domain.CanonicalEvent{
		Title:     "Jazz Night",
		StartTime: "2024-07-04T21:00:00",
		Timezone:  "America/New_York",
		Location:  &domain.Location{Name: "Blue Note", Address: "131 W 3rd St, New York, NY"},
	})
	if err != nil {
		t.Fatalf("BuildEvent: %v", err)
	}
	if ev.Start.DateTime != "2024-07-04T21:00:00-04:00" || ev.End.DateTime != "2024-07-04T22:00:00-04:00" {
		t.Fatalf("timed: start=%s end=%s", ev.Start.DateTime, ev.End.DateTime)
	}
	if ev.Start.TimeZone != "America/New_York" {
		t.Fatalf("timezone: got=%q", ev.Start.TimeZone)
	}
	if ev.Location != "131 W 3rd St, New York, NY" {
		t.Fatalf("address preferred: got=%q", ev.Location)
	}
	if _, err := BuildEvent(domain.CanonicalEvent{StartTime: "2024-07-04T21:00:00", Timezone: "Mars/Olympus"}); !errors.Is(err, ErrInvalidEventTime) {
		t.Fatalf("unknown timezone: want ErrInvalidEventTime got=%v", err)
	}
}

func TestCheckConflictsListsWindow(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/calendars/primary/events") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"items":[{"id":"x1","summary":"Standup","start":{"dateTime":"2024-03-15T19:15:00Z"},"end":{"dateTime":"2024-03-15T19:45:00Z"}}]}`)
	})
	got, err := c.CheckConflicts(context.Background(), "primary", "2024-03-15T19:00:00", "2024-03-15T19:00:00", "UTC")
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "x1" || got[0].Title != "Standup" {
		t.Fatalf("conflicts: got=%+v", got)
	}
	if !strings.Contains(gotQuery, "singleEvents=true") || !strings.Contains(gotQuery, "timeMin=2024-03-15T17") {
		t.Fatalf("query: got=%s", gotQuery)
	}
}

func TestCheckConflictsPropagatesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	})
	if _, err := c.CheckConflicts(context.Background(), "primary", "2024-03-15", "2024-03-16", ""); err == nil {
		t.Fatalf("expected error from 403")
	}
}

func TestCreateEventPostsBody(t *testing.T) {
	var body calendar.Event
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: want=POST got=%s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"evt-1","htmlLink":"https://calendar.google.com/event?eid=1"}`)
	})
	res, err := c.CreateEvent(context.Background(), "primary", domain.CanonicalEvent{
		Title:     "Book Club",
		StartTime: "2024-03-20",
		Timezone:  "UTC",
		Source:    domain.SourceText,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if res.ID != "evt-1" || res.HTMLLink == "" {
		t.Fatalf("result: got=%+v", res)
	}
	if body.Summary != "Book Club" || body.Start == nil || body.Start.Date != "2024-03-20" || body.End.Date != "2024-03-21" {
		t.Fatalf("posted body: got=%+v", body)
	}
}
