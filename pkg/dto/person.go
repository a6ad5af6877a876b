package dto

import "github.com/google/uuid"

type CreatePersonRequest struct {
	Name string `json:"name" binding:"required"`
}

type RenamePersonRequest struct {
	Name string `json:"name" binding:"required"`
}

type MergePersonsRequest struct {
	Into uuid.UUID `json:"into" binding:"required"`
}

type PersonResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	SampleCount int       `json:"sample_count"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

type FaceSampleResponse struct {
	ID        uuid.UUID `json:"id"`
	PersonID  uuid.UUID `json:"person_id"`
	Quality   float32   `json:"quality"`
	ImageKey  string    `json:"image_key,omitempty"`
	BBox      [4]int    `json:"bbox"`
	CreatedAt string    `json:"created_at"`
}
