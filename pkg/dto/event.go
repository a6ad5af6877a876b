package dto

import "github.com/google/uuid"

type EventResponse struct {
	ID         uuid.UUID  `json:"id"`
	Timestamp  string     `json:"timestamp"`
	PersonID   *uuid.UUID `json:"person_id,omitempty"`
	PersonName string     `json:"person_name,omitempty"`
	Confidence float64    `json:"confidence"`
	Distance   float64    `json:"distance"`
	Margin     float64    `json:"margin"`
	Status     string     `json:"status"`
	ImageKey   string     `json:"image_key,omitempty"`
	DeviceID   string     `json:"device_id,omitempty"`
}

type SimilarEventResponse struct {
	Event EventResponse `json:"event"`
	Score float32       `json:"score"`
}

// RecognizedFaceResponse is one face in an upload response.
type RecognizedFaceResponse struct {
	PersonID   *uuid.UUID `json:"person_id,omitempty"`
	PersonName string     `json:"person_name"`
	Confidence float64    `json:"confidence"`
	Status     string     `json:"status"`
	IsNew      bool       `json:"is_new"`
}

type UploadResponse struct {
	Status        string                   `json:"status"`
	Filename      string                   `json:"filename"`
	FacesDetected int                      `json:"faces_detected"`
	Faces         []RecognizedFaceResponse `json:"faces"`
}
