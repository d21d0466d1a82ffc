package gcal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

var ErrInvalidEventTime = errors.New("invalid event time")

// Client is the calendar collaborator: overlap lookups for the extraction
// pipeline and event creation for saves.
type Client interface {
	// CheckConflicts lists events overlapping [startTime, endTime). Timed values
	// without an offset are read in timezone; an empty timezone means UTC.
	CheckConflicts(ctx context.Context, calendarID, startTime, endTime, timezone string) ([]domain.Conflict, error)
	CreateEvent(ctx context.Context, calendarID string, ev domain.CanonicalEvent) (*CreatedEvent, error)
}

type CreatedEvent struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

type client struct {
	log     *logger.Logger
	svc     *calendar.Service
	timeout time.Duration
}

func NewClient(ctx context.Context, log *logger.Logger, opts ...option.ClientOption) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	ctx = ctxutil.Default(ctx)
	opts = append([]option.ClientOption{option.WithScopes(calendar.CalendarScope)}, opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return &client{
		log:     log.With("client", "GoogleCalendar"),
		svc:     svc,
		timeout: 10 * time.Second,
	}, nil
}

func (c *client) CheckConflicts(ctx context.Context, calendarID, startTime, endTime, timezone string) ([]domain.Conflict, error) {
	ctx = ctxutil.Default(ctx)
	loc := loadLocation(timezone)

	w, err := ConflictWindow(startTime, endTime, loc)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var items []*calendar.Event
	err = c.svc.Events.List(calendarID).
		TimeMin(w.Min.Format(time.RFC3339)).
		TimeMax(w.Max.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	conflicts := FilterConflicts(items, w, startTime, loc)
	c.log.Debug("Conflict check", "calendar_id", calendarID, "candidates", len(items), "conflicts", len(conflicts))
	return conflicts, nil
}

func (c *client) CreateEvent(ctx context.Context, calendarID string, ev domain.CanonicalEvent) (*CreatedEvent, error) {
	ctx = ctxutil.Default(ctx)
	body, err := BuildEvent(ev)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	created, err := c.svc.Events.Insert(calendarID, body).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create calendar event: %w", err)
	}
	c.log.Info("Calendar event created", "calendar_id", calendarID, "event_id", created.Id)
	return &CreatedEvent{ID: created.Id, HTMLLink: created.HtmlLink}, nil
}

// Window is the span searched for conflicts plus the requested span that
// candidates must overlap.
type Window struct {
	Min, Max   time.Time
	Start, End time.Time
	AllDay     bool
}

// ConflictWindow widens the request to whole days for all-day events and by
// two hours either side for timed ones. A timed request with no usable end
// is treated as one hour long, matching the default used on create.
func ConflictWindow(startTime, endTime string, loc *time.Location) (Window, error) {
	allDay := !strings.Contains(startTime, "T")
	start, err := domain.ParseEventTime(startTime, loc)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %w", ErrInvalidEventTime, err)
	}

	if allDay {
		endDate := domain.DatePart(endTime)
		if endDate == "" || endDate == startTime {
			if endDate, err = domain.NextCalendarDay(startTime); err != nil {
				return Window{}, fmt.Errorf("%w: %w", ErrInvalidEventTime, err)
			}
		}
		end, err := domain.ParseEventTime(endDate, loc)
		if err != nil {
			return Window{}, fmt.Errorf("%w: %w", ErrInvalidEventTime, err)
		}
		return Window{
			Min:    start,
			Max:    end.Add(24*time.Hour - time.Millisecond),
			Start:  start,
			End:    end,
			AllDay: true,
		}, nil
	}

	end := start.Add(time.Hour)
	if strings.TrimSpace(endTime) != "" {
		if e, err := domain.ParseEventTime(endTime, loc); err == nil && e.After(start) {
			end = e
		}
	}
	return Window{
		Min:   start.Add(-2 * time.Hour),
		Max:   end.Add(2 * time.Hour),
		Start: start,
		End:   end,
	}, nil
}

// Overlaps is the half-open interval test. A candidate with no end is an instant.
func Overlaps(reqStart, reqEnd, evStart time.Time, evEnd *time.Time) bool {
	last := evStart
	if evEnd != nil {
		last = *evEnd
	}
	return evStart.Before(reqEnd) && last.After(reqStart)
}

// FilterConflicts keeps the listed events overlapping the requested span.
// The result is never nil.
func FilterConflicts(items []*calendar.Event, w Window, startTime string, loc *time.Location) []domain.Conflict {
	out := []domain.Conflict{}
	for _, it := range items {
		if it == nil || it.Start == nil {
			continue
		}
		evStart, ok := eventTime(it.Start, loc)
		if !ok {
			continue
		}
		var evEnd *time.Time
		if it.End != nil {
			if t, ok := eventTime(it.End, loc); ok {
				evEnd = &t
			}
		}
		if !Overlaps(w.Start, w.End, evStart, evEnd) {
			continue
		}
		title := it.Summary
		if title == "" {
			title = "Untitled"
		}
		st := it.Start.DateTime
		if st == "" {
			st = it.Start.Date
		}
		if st == "" {
			st = startTime
		}
		out = append(out, domain.Conflict{EventID: it.Id, Title: title, StartTime: st})
	}
	return out
}

// BuildEvent maps a canonical event onto the Calendar API shape. All-day
// events use dates with an exclusive end; timed events default to one hour.
func BuildEvent(ev domain.CanonicalEvent) (*calendar.Event, error) {
	out := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Reminders:   &calendar.EventReminders{UseDefault: true},
	}
	if ev.Location != nil {
		out.Location = ev.Location.Address
		if out.Location == "" {
			out.Location = ev.Location.Name
		}
	}

	if ev.IsAllDay() {
		startDate := domain.DatePart(ev.StartTime)
		endDate := domain.DatePart(ev.EndTime)
		if endDate == "" {
			next, err := domain.NextCalendarDay(startDate)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidEventTime, err)
			}
			endDate = next
		}
		out.Start = &calendar.EventDateTime{Date: startDate}
		out.End = &calendar.EventDateTime{Date: endDate}
		return out, nil
	}

	loc, err := time.LoadLocation(ev.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidEventTime, ev.Timezone)
	}
	start, err := domain.ParseEventTime(ev.StartTime, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEventTime, err)
	}
	end := start.Add(time.Hour)
	if strings.TrimSpace(ev.EndTime) != "" {
		if end, err = domain.ParseEventTime(ev.EndTime, loc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEventTime, err)
		}
	}
	out.Start = &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: ev.Timezone}
	out.End = &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: ev.Timezone}
	return out, nil
}

func eventTime(dt *calendar.EventDateTime, loc *time.Location) (time.Time, bool) {
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		return t, err == nil
	}
	if dt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", dt.Date, loc)
		return t, err == nil
	}
	return time.Time{}, false
}

func loadLocation(tz string) *time.Location {
	if strings.TrimSpace(tz) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
