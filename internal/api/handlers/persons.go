package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/faceguard/internal/models"
	"github.com/your-org/faceguard/internal/storage"
	"github.com/your-org/faceguard/pkg/dto"
)

const timeLayout = "2006-01-02T15:04:05Z"

type PersonHandler struct {
	db *storage.PostgresStore
}

func NewPersonHandler(db *storage.PostgresStore) *PersonHandler {
	return &PersonHandler{db: db}
}

func (h *PersonHandler) Create(c *gin.Context) {
	var req dto.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	person, err := h.db.CreatePerson(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, h.toResponse(c, person))
}

func (h *PersonHandler) List(c *gin.Context) {
	includeMerged := c.Query("include_merged") == "true"

	persons, err := h.db.ListPersons(c.Request.Context(), includeMerged)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.PersonResponse, 0, len(persons))
	for i := range persons {
		resp = append(resp, h.toResponse(c, &persons[i]))
	}

	c.JSON(http.StatusOK, gin.H{"persons": resp, "total": len(resp)})
}

func (h *PersonHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	person, err := h.db.GetPerson(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if person == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}

	samples, err := h.db.ListFaceSamples(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	events, err := h.db.ListEvents(c.Request.Context(), 10, &id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sampleResp := make([]dto.FaceSampleResponse, 0, len(samples))
	for _, s := range samples {
		sampleResp = append(sampleResp, toSampleResponse(&s))
	}
	eventResp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		eventResp = append(eventResp, toEventResponse(&events[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"person":        h.toResponse(c, person),
		"samples":       sampleResp,
		"recent_events": eventResp,
	})
}

func (h *PersonHandler) Rename(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	var req dto.RenamePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.RenamePerson(c.Request.Context(), id, req.Name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "renamed"})
}

// Merge folds the person in the path into the person named in the body.
// The merged-away record stays behind as a tombstone.
func (h *PersonHandler) Merge(c *gin.Context) {
	from, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	var req dto.MergePersonsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.MergePersons(c.Request.Context(), from, req.Into); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		case errors.Is(err, storage.ErrSelfMerge):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot merge a person into itself"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "merged", "into": req.Into})
}

func (h *PersonHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	if err := h.db.DeletePerson(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *PersonHandler) ListSamples(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	samples, err := h.db.ListFaceSamples(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.FaceSampleResponse, 0, len(samples))
	for _, s := range samples {
		resp = append(resp, toSampleResponse(&s))
	}

	c.JSON(http.StatusOK, gin.H{"samples": resp, "total": len(resp)})
}

func (h *PersonHandler) DeleteSample(c *gin.Context) {
	if _, err := uuid.Parse(c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}
	sampleID, err := uuid.Parse(c.Param("sampleId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sample id"})
		return
	}

	if err := h.db.DeleteFaceSample(c.Request.Context(), sampleID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sample not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func toSampleResponse(s *models.FaceSample) dto.FaceSampleResponse {
	return dto.FaceSampleResponse{
		ID:        s.ID,
		PersonID:  s.PersonID,
		Quality:   s.Quality,
		ImageKey:  s.ImageKey,
		BBox:      s.BBox,
		CreatedAt: s.CreatedAt.Format(timeLayout),
	}
}

func (h *PersonHandler) toResponse(c *gin.Context, p *models.Person) dto.PersonResponse {
	count, _ := h.db.CountFaceSamples(c.Request.Context(), p.ID)
	return dto.PersonResponse{
		ID:          p.ID,
		Name:        p.Name,
		SampleCount: count,
		CreatedAt:   p.CreatedAt.Format(timeLayout),
		UpdatedAt:   p.UpdatedAt.Format(timeLayout),
	}
}
