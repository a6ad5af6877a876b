package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/faceguard/internal/models"
	"github.com/your-org/faceguard/internal/storage"
	"github.com/your-org/faceguard/pkg/dto"
)

type EventHandler struct {
	db    *storage.PostgresStore
	blobs *storage.ObjectStore
}

func NewEventHandler(db *storage.PostgresStore, blobs *storage.ObjectStore) *EventHandler {
	return &EventHandler{db: db, blobs: blobs}
}

// List returns recognition history, newest first, optionally filtered by
// person.
func (h *EventHandler) List(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = v
	}

	var personID *uuid.UUID
	if p := c.Query("person_id"); p != "" {
		id, err := uuid.Parse(p)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person_id"})
			return
		}
		personID = &id
	}

	events, err := h.db.ListEvents(c.Request.Context(), limit, personID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, toEventResponse(&events[i]))
	}

	c.JSON(http.StatusOK, gin.H{"events": resp, "total": len(resp)})
}

// Latest returns the most recent recognition event.
func (h *EventHandler) Latest(c *gin.Context) {
	ev, err := h.db.LatestEvent(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no events yet"})
		return
	}

	c.JSON(http.StatusOK, toEventResponse(ev))
}

// Snapshot serves the source image the event was recognized from.
func (h *EventHandler) Snapshot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	ev, err := h.db.GetEvent(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if ev.ImageKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "event has no snapshot"})
		return
	}

	data, err := h.blobs.GetObject(c.Request.Context(), ev.ImageKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

// Similar finds past events with the closest query embeddings to the
// given event (vector search over history).
func (h *EventHandler) Similar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	limit := 10
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	matches, err := h.db.SimilarToEvent(c.Request.Context(), id, limit)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found or has no embedding"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.SimilarEventResponse, 0, len(matches))
	for i := range matches {
		resp = append(resp, dto.SimilarEventResponse{
			Event: toEventResponse(&matches[i].Event),
			Score: matches[i].Score,
		})
	}

	c.JSON(http.StatusOK, gin.H{"results": resp, "total": len(resp)})
}

func toEventResponse(ev *models.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:         ev.ID,
		Timestamp:  ev.Timestamp.Format(timeLayout),
		PersonID:   ev.PersonID,
		PersonName: ev.PersonName,
		Confidence: ev.Confidence,
		Distance:   ev.Distance,
		Margin:     ev.Margin,
		Status:     string(ev.Status),
		ImageKey:   ev.ImageKey,
		DeviceID:   ev.DeviceID,
	}
}
