package recognize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/faceguard/internal/config"
	"github.com/your-org/faceguard/internal/models"
	"github.com/your-org/faceguard/internal/observability"
	"github.com/your-org/faceguard/internal/storage"
	"github.com/your-org/faceguard/internal/vision"
)

// Detector finds faces in an encoded image. An undecodable image yields an
// empty slice, not an error.
type Detector interface {
	Detect(image []byte) []vision.Face
}

// Extractor turns a detected face into an embedding, and can produce a
// padded JPEG crop of the face region.
type Extractor interface {
	Extract(image []byte, face vision.Face) ([]float32, error)
	Crop(image []byte, bbox models.BBox) ([]byte, error)
}

// Store is the slice of the identity store the recognition path needs.
// *storage.PostgresStore satisfies it.
type Store interface {
	AllEmbeddings(ctx context.Context) ([]models.KnownEmbedding, error)
	GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error)
	CreatePersonWithSample(ctx context.Context, name string, embedding []float32, imageKey string, quality float32, bbox models.BBox) (*models.Person, error)
	AddFaceSample(ctx context.Context, personID uuid.UUID, embedding []float32, imageKey string, quality float32, bbox models.BBox) (*models.FaceSample, error)
	CountFaceSamples(ctx context.Context, personID uuid.UUID) (int, error)
	OldestFaceSample(ctx context.Context, personID uuid.UUID) (*uuid.UUID, error)
	DeleteFaceSample(ctx context.Context, id uuid.UUID) error
	CreateEvent(ctx context.Context, ev *models.Event) error
	SetEventPerson(ctx context.Context, eventID, personID uuid.UUID) error
}

// BlobStore persists image bytes. *storage.ObjectStore satisfies it.
type BlobStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// Result is the outcome of processing one image.
type Result struct {
	FacesDetected int                     `json:"faces_detected"`
	Faces         []models.RecognizedFace `json:"faces"`
}

// Service runs the full recognition path for one image: detect, embed,
// match, record, learn.
type Service struct {
	cfg       config.VisionConfig
	detector  Detector
	extractor Extractor
	matcher   *Matcher
	learner   *Learner
	store     Store
	blobs     BlobStore

	now func() time.Time
}

func NewService(cfg config.VisionConfig, det Detector, ext Extractor, matcher *Matcher, learner *Learner, store Store, blobs BlobStore) *Service {
	return &Service{
		cfg:       cfg,
		detector:  det,
		extractor: ext,
		matcher:   matcher,
		learner:   learner,
		store:     store,
		blobs:     blobs,
		now:       time.Now,
	}
}

// ProcessImage recognizes all faces in an encoded image already stored
// under imageKey. Reference embeddings are loaded once per image, so every
// face in the image is matched against the same snapshot. One event row is
// written per face (or one NO_FACE event when the image has none).
//
// Faces whose embedding extraction fails are skipped with a warning;
// identity store write failures abort processing.
func (s *Service) ProcessImage(ctx context.Context, image []byte, imageKey, deviceID string) (*Result, error) {
	if !s.cfg.Enabled {
		return &Result{}, nil
	}
	observability.ImagesProcessed.WithLabelValues(deviceID).Inc()

	faces := s.detector.Detect(image)
	if len(faces) == 0 {
		ev := &models.Event{
			Timestamp: s.now(),
			Distance:  unknownDistance,
			Status:    models.StatusNoFace,
			ImageKey:  imageKey,
			DeviceID:  deviceID,
		}
		if err := s.store.CreateEvent(ctx, ev); err != nil {
			return nil, fmt.Errorf("record no-face event: %w", err)
		}
		return &Result{}, nil
	}

	known, err := s.store.AllEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	result := &Result{}
	for i, face := range faces {
		embedding, err := s.extractor.Extract(image, face)
		if err != nil {
			slog.Warn("embedding extraction failed, skipping face",
				"image_key", imageKey, "face", i, "error", err)
			continue
		}

		verdict := s.matcher.Match(embedding, known)
		observability.FacesMatched.WithLabelValues(string(verdict.Status)).Inc()

		ev := &models.Event{
			Timestamp:  s.now(),
			PersonID:   verdict.PersonID,
			Confidence: float64(verdict.Confidence) / 100.0,
			Distance:   float64(verdict.Distance),
			Margin:     float64(verdict.Margin),
			Status:     verdict.Status,
			ImageKey:   imageKey,
			DeviceID:   deviceID,
			Embedding:  embedding,
		}
		if err := s.store.CreateEvent(ctx, ev); err != nil {
			return nil, fmt.Errorf("record event: %w", err)
		}

		rf := models.RecognizedFace{
			PersonID:   verdict.PersonID,
			Confidence: float64(verdict.Confidence),
			Status:     verdict.Status,
		}

		switch {
		case verdict.PersonID != nil:
			person, err := s.store.GetPerson(ctx, *verdict.PersonID)
			if err != nil {
				return nil, fmt.Errorf("load matched person: %w", err)
			}
			if person != nil {
				rf.PersonName = person.Name
			}
			if s.learner != nil {
				crop := s.cropFace(image, face)
				if _, err := s.learner.Learn(ctx, *verdict.PersonID, verdict, face, embedding, crop); err != nil {
					return nil, fmt.Errorf("auto-learn: %w", err)
				}
			}

		case s.cfg.AutoCreatePerson:
			person, err := s.createPerson(ctx, ev.ID, image, face, embedding)
			if err != nil {
				return nil, err
			}
			rf.PersonID = &person.ID
			rf.PersonName = person.Name
			rf.IsNew = true

		default:
			rf.PersonName = "Unknown"
		}

		result.Faces = append(result.Faces, rf)
	}

	result.FacesDetected = len(result.Faces)
	observability.FacesDetected.WithLabelValues(deviceID).Add(float64(result.FacesDetected))
	return result, nil
}

// createPerson registers an unknown face as a new person with the face as
// its first sample, then backfills the already-written event with the new
// person id.
func (s *Service) createPerson(ctx context.Context, eventID uuid.UUID, image []byte, face vision.Face, embedding []float32) (*models.Person, error) {
	crop := s.cropFace(image, face)
	imageKey := ""
	if len(crop) > 0 && s.blobs != nil {
		// Key the crop by a fresh id; the real person id is not known yet.
		imageKey = storage.FaceCropKey(uuid.New(), s.now())
		if err := s.blobs.PutObject(ctx, imageKey, crop, "image/jpeg"); err != nil {
			slog.Warn("store face crop", "image_key", imageKey, "error", err)
			imageKey = ""
		}
	}

	person, err := s.store.CreatePersonWithSample(ctx, "", embedding, imageKey, face.Quality, face.BBox)
	if err != nil {
		return nil, fmt.Errorf("auto-create person: %w", err)
	}
	if err := s.store.SetEventPerson(ctx, eventID, person.ID); err != nil {
		return nil, fmt.Errorf("backfill event person: %w", err)
	}
	observability.PersonsCreated.Inc()
	slog.Info("auto-created person", "person_id", person.ID, "name", person.Name)
	return person, nil
}

func (s *Service) cropFace(image []byte, face vision.Face) []byte {
	if s.extractor == nil {
		return nil
	}
	crop, err := s.extractor.Crop(image, face.BBox)
	if err != nil {
		slog.Warn("face crop failed", "error", err)
		return nil
	}
	return crop
}
