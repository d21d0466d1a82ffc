package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/platform/apierr"
	"github.com/yungbote/snapcal-backend/internal/services"
)

type fakePipeline struct {
	res *domain.ExtractResponse
	err error
	got services.ExtractRequest
}

func (f *fakePipeline) Extract(ctx context.Context, req services.ExtractRequest) (*domain.ExtractResponse, error) {
	f.got = req
	return f.res, f.err
}

type fakeSaver struct {
	saved   []domain.CanonicalEvent
	err     error
	history []*domain.EventRecord
	deleted string
}

func (f *fakeSaver) Save(ctx context.Context, ev domain.CanonicalEvent) (*domain.SaveResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, ev)
	return &domain.SaveResult{Success: true, EventID: "evt-1", HTMLLink: "https://cal/evt-1", Message: "Event created successfully"}, nil
}

func (f *fakeSaver) History(ctx context.Context, limit, offset int) ([]*domain.EventRecord, error) {
	return f.history, nil
}

func (f *fakeSaver) DeleteHistory(ctx context.Context, id string) error {
	f.deleted = id
	return f.err
}

func newEngine(h *EventHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/extract", h.Extract)
	r.POST("/save", h.Save)
	r.GET("/history", h.ListHistory)
	r.DELETE("/history/:id", h.DeleteHistory)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestExtractReturnsEventAndConfidence(t *testing.T) {
	p := &fakePipeline{res: &domain.ExtractResponse{
		Event:      domain.CanonicalEvent{Title: "Jazz", StartTime: "2024-03-20", EndTime: "2024-03-21", Timezone: "UTC", Source: "text", Conflicts: []domain.Conflict{}},
		Confidence: 0.8,
	}}
	r := newEngine(NewEventHandler(p, &fakeSaver{}))

	rec := do(r, http.MethodPost, "/extract", `{"type":"text","data":"jazz on the 20th"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if p.got.Type != "text" || p.got.Data != "jazz on the 20th" {
		t.Fatalf("request: got=%+v", p.got)
	}
	var body struct {
		Event      map[string]any `json:"event"`
		Confidence float64        `json:"confidence"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Confidence != 0.8 || body.Event["startTime"] != "2024-03-20" {
		t.Fatalf("body: got=%+v", body)
	}
	if c, ok := body.Event["conflicts"].([]any); !ok || len(c) != 0 {
		t.Fatalf("conflicts must be []: got=%v", body.Event["conflicts"])
	}
	if _, ok := body.Event["location"]; !ok {
		t.Fatalf("location must be present (null) in the payload")
	}
}

func TestExtractMissingFields(t *testing.T) {
	r := newEngine(NewEventHandler(&fakePipeline{}, &fakeSaver{}))
	rec := do(r, http.MethodPost, "/extract", `{"type":"text"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	var env map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if env["error"] != "missing type or data" || env["code"] != "missing_data" {
		t.Fatalf("error envelope: got=%v", env)
	}
}

func TestExtractMapsAPIError(t *testing.T) {
	p := &fakePipeline{err: apierr.BadRequest("invalid_type", errors.New(`invalid type "audio": must be image, url, or text`))}
	r := newEngine(NewEventHandler(p, &fakeSaver{}))
	rec := do(r, http.MethodPost, "/extract", `{"type":"audio","data":"x"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"code":"invalid_type"`) {
		t.Fatalf("want 400 invalid_type got=%d %s", rec.Code, rec.Body.String())
	}

	p.err = errors.New("boom")
	rec = do(r, http.MethodPost, "/extract", `{"type":"text","data":"x"}`)
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("unexpected 500 rendering: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSaveRoute(t *testing.T) {
	s := &fakeSaver{}
	r := newEngine(NewEventHandler(&fakePipeline{}, s))
	rec := do(r, http.MethodPost, "/save", `{"title":"Jazz","startTime":"2024-03-20T20:00:00","timezone":"America/New_York","source":"url","location":{"name":"Blue Note"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if len(s.saved) != 1 || s.saved[0].Location == nil || s.saved[0].Location.Name != "Blue Note" {
		t.Fatalf("saved: got=%+v", s.saved)
	}
	if !strings.Contains(rec.Body.String(), `"eventId":"evt-1"`) {
		t.Fatalf("body: %s", rec.Body.String())
	}

	rec = do(r, http.MethodPost, "/save", `{"title":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed json: want=400 got=%d", rec.Code)
	}

	s.err = apierr.BadRequest("invalid_event", errors.New("invalid event data")).WithDetails([]services.FieldProblem{{Field: "title", Message: "required"}})
	rec = do(r, http.MethodPost, "/save", `{"title":""}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"details":[{"field":"title"`) {
		t.Fatalf("validation details: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHistoryRoutes(t *testing.T) {
	s := &fakeSaver{history: []*domain.EventRecord{{ID: "r1", Title: "Jazz"}}}
	r := newEngine(NewEventHandler(&fakePipeline{}, s))

	rec := do(r, http.MethodGet, "/history?limit=5", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":"r1"`) {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(r, http.MethodDelete, "/history/r1", "")
	if rec.Code != http.StatusNoContent || s.deleted != "r1" {
		t.Fatalf("delete: %d deleted=%q", rec.Code, s.deleted)
	}

	s.err = apierr.New(http.StatusNotFound, "not_found", errors.New("record not found"))
	rec = do(r, http.MethodDelete, "/history/zzz", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing: want=404 got=%d", rec.Code)
	}
}
