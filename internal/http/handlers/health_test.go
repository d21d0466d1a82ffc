package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHealthReportsCapabilities(t *testing.T) {
	gin.SetMode(gin.TestMode)
	caps := map[string]bool{"calendar": true, "video": false}
	h := NewHealthHandler(caps)
	caps["calendar"] = false

	r := gin.New()
	r.GET("/health", h.HealthCheck)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	var body struct {
		Status       string          `json:"status"`
		Capabilities map[string]bool `json:"capabilities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || !body.Capabilities["calendar"] || body.Capabilities["video"] {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
