package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/snapcal-backend/internal/clients/gcal"
	"github.com/yungbote/snapcal-backend/internal/data/repos"
	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/platform/apierr"
	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

// CalendarWriter is the write half of the calendar collaborator.
type CalendarWriter interface {
	CreateEvent(ctx context.Context, calendarID string, ev domain.CanonicalEvent) (*gcal.CreatedEvent, error)
}

type EventSaveService interface {
	Save(ctx context.Context, ev domain.CanonicalEvent) (*domain.SaveResult, error)
	History(ctx context.Context, limit, offset int) ([]*domain.EventRecord, error)
	DeleteHistory(ctx context.Context, id string) error
}

type eventSaveService struct {
	log        *logger.Logger
	calendar   CalendarWriter
	history    repos.EventRecordRepo
	calendarID string
}

// NewEventSaveService builds the save path. history may be nil, in which case
// saves are not recorded and the history endpoints report an empty list.
func NewEventSaveService(log *logger.Logger, calendar CalendarWriter, history repos.EventRecordRepo, calendarID string) EventSaveService {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &eventSaveService{
		log:        log.With("service", "EventSaveService"),
		calendar:   calendar,
		history:    history,
		calendarID: calendarID,
	}
}

func (s *eventSaveService) Save(ctx context.Context, ev domain.CanonicalEvent) (*domain.SaveResult, error) {
	ctx = ctxutil.Default(ctx)
	if problems := ValidateCanonicalEvent(ev); len(problems) > 0 {
		return nil, apierr.BadRequest("invalid_event", errors.New("invalid event data")).WithDetails(problems)
	}
	if s.calendar == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "calendar_unavailable", errors.New("calendar is not configured"))
	}

	created, err := s.calendar.CreateEvent(ctx, s.calendarID, ev)
	if err != nil {
		if errors.Is(err, gcal.ErrInvalidEventTime) {
			return nil, apierr.BadRequest("invalid_event", err)
		}
		return nil, apierr.New(http.StatusBadGateway, "calendar_write_failed", fmt.Errorf("failed to create calendar event: %w", err))
	}

	s.record(ctx, ev, created)
	return &domain.SaveResult{
		Success:  true,
		EventID:  created.ID,
		HTMLLink: created.HTMLLink,
		Message:  "Event created successfully",
	}, nil
}

// record keeps a history row. The calendar write already happened, so a
// failure here is logged and the save still succeeds.
func (s *eventSaveService) record(ctx context.Context, ev domain.CanonicalEvent, created *gcal.CreatedEvent) {
	if s.history == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		s.log.Warn("History payload encode failed", "error", err)
		return
	}
	rec := &domain.EventRecord{
		CalendarID:      s.calendarID,
		CalendarEventID: created.ID,
		HTMLLink:        created.HTMLLink,
		Title:           ev.Title,
		StartTime:       ev.StartTime,
		EndTime:         ev.EndTime,
		Timezone:        ev.Timezone,
		Source:          ev.Source,
		Payload:         datatypes.JSON(payload),
		CreatedAt:       time.Now().UTC(),
	}
	if ev.Location != nil {
		rec.LocationName = ev.Location.Name
	}
	if _, err := s.history.Create(ctx, nil, rec); err != nil {
		s.log.Warn("History record failed", "calendar_event_id", created.ID, "error", err)
	}
}

func (s *eventSaveService) History(ctx context.Context, limit, offset int) ([]*domain.EventRecord, error) {
	if s.history == nil {
		return []*domain.EventRecord{}, nil
	}
	out, err := s.history.List(ctxutil.Default(ctx), nil, limit, offset)
	if err != nil {
		return nil, apierr.Internal("history_failed", err)
	}
	if out == nil {
		out = []*domain.EventRecord{}
	}
	return out, nil
}

func (s *eventSaveService) DeleteHistory(ctx context.Context, id string) error {
	if s.history == nil {
		return apierr.New(http.StatusNotFound, "not_found", repos.ErrNotFound)
	}
	err := s.history.SoftDeleteByID(ctxutil.Default(ctx), nil, strings.TrimSpace(id))
	if errors.Is(err, repos.ErrNotFound) {
		return apierr.New(http.StatusNotFound, "not_found", err)
	}
	if err != nil {
		return apierr.Internal("history_failed", err)
	}
	return nil
}

// FieldProblem names one rejected field of a save request.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validSources = map[string]struct{}{
	domain.SourceFlyer: {},
	domain.SourceURL:   {},
	domain.SourceText:  {},
	domain.SourceEmail: {},
}

// ValidateCanonicalEvent checks a reviewed event before it is written.
func ValidateCanonicalEvent(ev domain.CanonicalEvent) []FieldProblem {
	var problems []FieldProblem
	add := func(field, msg string) { problems = append(problems, FieldProblem{Field: field, Message: msg}) }

	if strings.TrimSpace(ev.Title) == "" {
		add("title", "required")
	}
	if strings.TrimSpace(ev.StartTime) == "" {
		add("startTime", "required")
	} else if _, err := domain.ParseEventTime(ev.StartTime, time.UTC); err != nil {
		add("startTime", "must be YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS")
	}
	if ev.EndTime != "" {
		if _, err := domain.ParseEventTime(ev.EndTime, time.UTC); err != nil {
			add("endTime", "must be YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS")
		}
	}
	if strings.TrimSpace(ev.Timezone) == "" {
		add("timezone", "required")
	} else if _, err := time.LoadLocation(ev.Timezone); err != nil {
		add("timezone", "unknown IANA zone")
	}
	if _, ok := validSources[ev.Source]; !ok {
		add("source", "must be one of flyer, url, text, email")
	}
	if ev.TravelBufferMinutes != nil && *ev.TravelBufferMinutes < 0 {
		add("travelBufferMinutes", "must not be negative")
	}
	return problems
}
