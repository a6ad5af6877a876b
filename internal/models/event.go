package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the three-tier match verdict plus the no-detection marker.
type EventStatus string

const (
	StatusGreen   EventStatus = "GREEN"   // reliable match
	StatusYellow  EventStatus = "YELLOW"  // uncertain but plausible match
	StatusUnknown EventStatus = "UNKNOWN" // no attribution
	StatusNoFace  EventStatus = "NO_FACE" // detection yielded nothing
)

// Event is an immutable audit record of one recognition attempt.
// The only permitted mutation is backfilling PersonID after late
// person creation.
type Event struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	Timestamp  time.Time   `json:"timestamp" db:"timestamp"`
	PersonID   *uuid.UUID  `json:"person_id,omitempty" db:"person_id"`
	Confidence float64     `json:"confidence" db:"confidence"` // stored 0..1
	Distance   float64     `json:"distance" db:"distance"`
	Margin     float64     `json:"margin" db:"margin"`
	Status     EventStatus `json:"status" db:"status"`
	ImageKey   string      `json:"image_key" db:"image_key"`
	DeviceID   string      `json:"device_id" db:"device_id"`
	// Embedding is the query vector that produced this event, kept for
	// similarity search over history. Not part of the JSON contract.
	Embedding []float32 `json:"-" db:"embedding"`
	// PersonName is populated by list queries that join the person table.
	PersonName string `json:"person_name,omitempty" db:"-"`
}

// RecognitionMessage is published to NATS after each processed image,
// consumed by the notifier.
type RecognitionMessage struct {
	Timestamp     time.Time        `json:"timestamp"`
	DeviceID      string           `json:"device_id"`
	ImageKey      string           `json:"image_key"`
	FacesDetected int              `json:"faces_detected"`
	Faces         []RecognizedFace `json:"faces"`
}

// RecognizedFace is one resolved face within a RecognitionMessage.
type RecognizedFace struct {
	PersonID   *uuid.UUID  `json:"person_id,omitempty"`
	PersonName string      `json:"person_name"`
	Confidence float64     `json:"confidence"` // 0..100
	Status     EventStatus `json:"status"`
	IsNew      bool        `json:"is_new"`
}
