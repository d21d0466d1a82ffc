package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(logger.NewNop(), Config{APIKey: "AIza-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestFindPlaces(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/api/place/findplacefromtext/json" {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		if r.URL.Query().Get("input") != "Blue Moon Cafe" || r.URL.Query().Get("inputtype") != "textquery" {
			t.Errorf("query: got=%s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","candidates":[
			{"place_id":"abc","name":"Blue Moon Cafe","formatted_address":"1 Main St","geometry":{"location":{"lat":37.7,"lng":-122.4}}},
			{"place_id":"def","name":"Other"}
		]}`))
	})

	places, err := c.FindPlaces(context.Background(), "Blue Moon Cafe")
	if err != nil {
		t.Fatalf("FindPlaces: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("candidates: want=2 got=%d", len(places))
	}
	p := places[0]
	if p.PlaceID != "abc" || p.FormattedAddress != "1 Main St" || p.Location.Lat != 37.7 || p.Name != "Blue Moon Cafe" {
		t.Fatalf("unexpected place: %+v", p)
	}
}

func TestFindPlacesZeroResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","candidates":[]}`))
	})
	places, err := c.FindPlaces(context.Background(), "nowhere")
	if err != nil || len(places) != 0 {
		t.Fatalf("want no places and no error, got=%v err=%v", places, err)
	}
}

func TestFindPlacesDenied(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
	})
	if _, err := c.FindPlaces(context.Background(), "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLookupTimezone(t *testing.T) {
	at := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/api/timezone/json" {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		if r.URL.Query().Get("timestamp") != "1719835200" {
			t.Errorf("timestamp: got=%s", r.URL.Query().Get("timestamp"))
		}
		_, _ = w.Write([]byte(`{"status":"OK","timeZoneId":"America/New_York","rawOffset":-18000,"dstOffset":3600}`))
	})
	info, err := c.LookupTimezone(context.Background(), 40.7, -74.0, at)
	if err != nil {
		t.Fatalf("LookupTimezone: %v", err)
	}
	if info.TimeZoneID != "America/New_York" || info.RawOffset != -18000 || info.DstOffset != 3600 {
		t.Fatalf("unexpected info: %+v", info)
	}
}
