package models

import (
	"time"

	"github.com/google/uuid"
)

// Person is an identity record. A person with MergedInto set is a tombstone:
// it is excluded from active queries and never receives new samples or events.
type Person struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	MergedInto *uuid.UUID `json:"merged_into,omitempty" db:"merged_into"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// FaceSample is one learned reference embedding for a person.
type FaceSample struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PersonID  uuid.UUID `json:"person_id" db:"person_id"`
	Embedding []float32 `json:"-" db:"embedding"`
	ImageKey  string    `json:"image_key" db:"image_key"`
	Quality   float32   `json:"quality" db:"quality"`
	BBox      BBox      `json:"bbox" db:"bbox"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BBox is a face bounding box as x, y, width, height in pixels.
// It marshals to a plain 4-element JSON array.
type BBox [4]int

func (b BBox) Area() int {
	return b[2] * b[3]
}

// KnownEmbedding is one (person, embedding) pair from the identity store
// snapshot the matcher runs against.
type KnownEmbedding struct {
	PersonID  uuid.UUID
	Embedding []float32
}
