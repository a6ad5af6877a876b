package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/faceguard/internal/api/ws"
	"github.com/your-org/faceguard/internal/models"
	"github.com/your-org/faceguard/internal/queue"
	"github.com/your-org/faceguard/internal/recognize"
	"github.com/your-org/faceguard/internal/storage"
	"github.com/your-org/faceguard/pkg/dto"
)

// UploadHandler receives camera snapshots and runs them through the
// recognition pipeline synchronously, so the caller gets the verdicts in
// the response.
type UploadHandler struct {
	blobs      *storage.ObjectStore
	recognizer *recognize.Service // nil when vision is disabled
	producer   *queue.Producer
	hub        *ws.Hub
}

func NewUploadHandler(blobs *storage.ObjectStore, recognizer *recognize.Service, producer *queue.Producer, hub *ws.Hub) *UploadHandler {
	return &UploadHandler{blobs: blobs, recognizer: recognizer, producer: producer, hub: hub}
}

func (h *UploadHandler) Upload(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return
	}

	deviceID := c.PostForm("device_id")
	if deviceID == "" {
		deviceID = "default"
	}

	now := time.Now()
	imageKey := storage.CaptureKey(deviceID, now)
	if err := h.blobs.PutObject(c.Request.Context(), imageKey, imageData, "image/jpeg"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store image failed"})
		return
	}

	resp := dto.UploadResponse{
		Status:   "ok",
		Filename: imageKey,
		Faces:    []dto.RecognizedFaceResponse{},
	}

	if h.recognizer == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	result, err := h.recognizer.ProcessImage(c.Request.Context(), imageData, imageKey, deviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp.FacesDetected = result.FacesDetected
	for _, f := range result.Faces {
		resp.Faces = append(resp.Faces, dto.RecognizedFaceResponse{
			PersonID:   f.PersonID,
			PersonName: f.PersonName,
			Confidence: f.Confidence,
			Status:     string(f.Status),
			IsNew:      f.IsNew,
		})
	}

	msg := &models.RecognitionMessage{
		Timestamp:     now,
		DeviceID:      deviceID,
		ImageKey:      imageKey,
		FacesDetected: result.FacesDetected,
		Faces:         result.Faces,
	}
	if h.producer != nil {
		if err := h.producer.PublishRecognition(c.Request.Context(), deviceID, msg); err != nil {
			// Delivery to downstream consumers is best-effort; the result
			// is already durable in the event log.
			slog.Warn("publish recognition", "error", err)
		}
	}
	if h.hub != nil {
		h.hub.BroadcastRecognition(msg)
	}

	c.JSON(http.StatusOK, resp)
}
