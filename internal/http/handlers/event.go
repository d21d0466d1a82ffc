package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/http/response"
	"github.com/yungbote/snapcal-backend/internal/services"
)

// MaxRequestBytes bounds request bodies. A base64 flyer photo is the largest payload.
const MaxRequestBytes = 20 << 20

type EventHandler struct {
	pipeline services.ExtractionPipeline
	saver    services.EventSaveService
}

func NewEventHandler(pipeline services.ExtractionPipeline, saver services.EventSaveService) *EventHandler {
	return &EventHandler{pipeline: pipeline, saver: saver}
}

// POST /extract
func (h *EventHandler) Extract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBytes)
	var req services.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "missing_data", errors.New("missing type or data"))
		return
	}
	res, err := h.pipeline.Extract(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /save
func (h *EventHandler) Save(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBytes)
	var ev domain.CanonicalEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_event", errors.New("invalid event data"))
		return
	}
	res, err := h.saver.Save(c.Request.Context(), ev)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /history?limit=&offset=
func (h *EventHandler) ListHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit > 200 {
		limit = 200
	}
	items, err := h.saver.History(c.Request.Context(), limit, offset)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

// DELETE /history/:id
func (h *EventHandler) DeleteHistory(c *gin.Context) {
	if err := h.saver.DeleteHistory(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
