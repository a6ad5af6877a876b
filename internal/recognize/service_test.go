package recognize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/faceguard/internal/config"
	"github.com/your-org/faceguard/internal/models"
	"github.com/your-org/faceguard/internal/vision"
)

func serviceVisionConfig() config.VisionConfig {
	return config.VisionConfig{
		Enabled:          true,
		ThresholdStrict:  0.35,
		ThresholdLoose:   0.50,
		MarginStrict:     0.15,
		MarginLoose:      0.08,
		MinFaceSize:      10000,
		MinQualityScore:  0.6,
		AutoCreatePerson: true,
	}
}

func newTestService(t *testing.T, cfg config.VisionConfig, store *fakeStore, det *fakeDetector, ext *fakeExtractor) *Service {
	t.Helper()
	learner, err := NewLearner(testLearnerConfig(), cfg, store, newFakeBlobStore())
	require.NoError(t, err)
	return NewService(cfg, det, ext, NewMatcher(cfg), learner, store, newFakeBlobStore())
}

func TestProcessImage_DisabledReturnsEmpty(t *testing.T) {
	store := newFakeStore()
	cfg := serviceVisionConfig()
	cfg.Enabled = false
	svc := newTestService(t, cfg, store, &fakeDetector{}, &fakeExtractor{errAt: -1})

	res, err := svc.ProcessImage(context.Background(), []byte("jpeg"), "images/cam1/x.jpg", "cam1")
	require.NoError(t, err)
	assert.Zero(t, res.FacesDetected)
	assert.Empty(t, store.events, "disabled pipeline writes no events")
}

func TestProcessImage_NoFaceWritesEvent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, serviceVisionConfig(), store, &fakeDetector{}, &fakeExtractor{errAt: -1})

	res, err := svc.ProcessImage(context.Background(), []byte("jpeg"), "images/cam1/x.jpg", "cam1")
	require.NoError(t, err)
	assert.Zero(t, res.FacesDetected)
	assert.Empty(t, res.Faces)

	require.Len(t, store.events, 1)
	ev := store.events[0]
	assert.Equal(t, models.StatusNoFace, ev.Status)
	assert.Nil(t, ev.PersonID)
	assert.Equal(t, float64(unknownDistance), ev.Distance)
	assert.Equal(t, "cam1", ev.DeviceID)
}

func TestProcessImage_KnownPersonMatched(t *testing.T) {
	store := newFakeStore()
	emb := []float32{0.6, 0.8}
	person, err := store.CreatePersonWithSample(context.Background(), "Alice", emb, "", 0.9, models.BBox{0, 0, 150, 150})
	require.NoError(t, err)

	det := &fakeDetector{faces: []vision.Face{goodFace()}}
	ext := &fakeExtractor{embeddings: [][]float32{emb}, errAt: -1}
	svc := newTestService(t, serviceVisionConfig(), store, det, ext)

	res, err := svc.ProcessImage(context.Background(), []byte("jpeg"), "images/cam1/x.jpg", "cam1")
	require.NoError(t, err)
	require.Equal(t, 1, res.FacesDetected)

	face := res.Faces[0]
	require.NotNil(t, face.PersonID)
	assert.Equal(t, person.ID, *face.PersonID)
	assert.Equal(t, "Alice", face.PersonName)
	assert.Equal(t, models.StatusGreen, face.Status)
	assert.False(t, face.IsNew)

	require.Len(t, store.events, 1)
	require.NotNil(t, store.events[0].PersonID)
	assert.Equal(t, person.ID, *store.events[0].PersonID)

	// A GREEN match on a good face also learned a sample.
	n, _ := store.CountFaceSamples(context.Background(), person.ID)
	assert.Equal(t, 2, n)
}

func TestProcessImage_UnknownFaceCreatesPerson(t *testing.T) {
	store := newFakeStore()
	det := &fakeDetector{faces: []vision.Face{goodFace()}}
	ext := &fakeExtractor{embeddings: [][]float32{{1, 0}}, errAt: -1}
	svc := newTestService(t, serviceVisionConfig(), store, det, ext)

	res, err := svc.ProcessImage(context.Background(), []byte("jpeg"), "images/cam1/x.jpg", "cam1")
	require.NoError(t, err)
	require.Equal(t, 1, res.FacesDetected)

	face := res.Faces[0]
	require.NotNil(t, face.PersonID)
	assert.True(t, face.IsNew)
	assert.Equal(t, models.StatusUnknown, face.Status)
	assert.Contains(t, face.PersonName, "Unbekannt #")

	// Exactly one person with exactly one sample, and the event was
	// backfilled with the new person id.
	assert.Len(t, store.persons, 1)
	n, _ := store.CountFaceSamples(context.Background(), *face.PersonID)
	assert.Equal(t, 1, n)
	require.Len(t, store.events, 1)
	require.NotNil(t, store.events[0].PersonID)
	assert.Equal(t, *face.PersonID, *store.events[0].PersonID)
}

func TestProcessImage_AutoCreateDisabled(t *testing.T) {
	store := newFakeStore()
	cfg := serviceVisionConfig()
	cfg.AutoCreatePerson = false
	det := &fakeDetector{faces: []vision.Face{goodFace()}}
	ext := &fakeExtractor{embeddings: [][]float32{{1, 0}}, errAt: -1}
	svc := newTestService(t, cfg, store, det, ext)

	res, err := svc.ProcessImage(context.Background(), []byte("jpeg"), "images/cam1/x.jpg", "cam1")
	require.NoError(t, err)
	require.Equal(t, 1, res.FacesDetected)

	face := res.Faces[0]
	assert.Nil(t, face.PersonID)
	assert.Equal(t, "Unknown", face.PersonName)
	assert.Empty(t, store.persons)
}

func TestProcessImage_SingleSnapshotPerImage(t *testing.T) {
	store := newFakeStore()
	// Two unknown faces in one image. Both are matched against the same
	// (empty) snapshot, so both become new persons even though they are
	// far apart from each other.
	det := &fakeDetector{faces: []vision.Face{goodFace(), goodFace()}}
	ext := &fakeExtractor{embeddings: [][]float32{{1, 0}, {0, 1}}, errAt: -1}
	svc := newTestService(t, serviceVisionConfig(), store, det, ext)

	res, err := svc.ProcessImage(context.Background(), []byte("jpeg"), "images/cam1/x.jpg", "cam1")
	require.NoError(t, err)
	require.Equal(t, 2, res.FacesDetected)

	assert.Equal(t, 1, store.embeddingsCalls, "reference embeddings are loaded once per image")
	assert.Len(t, store.persons, 2)
	assert.True(t, res.Faces[0].IsNew)
	assert.True(t, res.Faces[1].IsNew)
	assert.NotEqual(t, *res.Faces[0].PersonID, *res.Faces[1].PersonID)
}

func TestProcessImage_ExtractionFailureSkipsFace(t *testing.T) {
	store := newFakeStore()
	emb := []float32{0.6, 0.8}
	person, err := store.CreatePersonWithSample(context.Background(), "Alice", emb, "", 0.9, models.BBox{0, 0, 150, 150})
	require.NoError(t, err)

	det := &fakeDetector{faces: []vision.Face{goodFace(), goodFace()}}
	ext := &fakeExtractor{embeddings: [][]float32{nil, emb}, errAt: 0}
	svc := newTestService(t, serviceVisionConfig(), store, det, ext)

	res, err := svc.ProcessImage(context.Background(), []byte("jpeg"), "images/cam1/x.jpg", "cam1")
	require.NoError(t, err)

	// The failed face is dropped; the second one still resolves.
	require.Equal(t, 1, res.FacesDetected)
	require.NotNil(t, res.Faces[0].PersonID)
	assert.Equal(t, person.ID, *res.Faces[0].PersonID)
	assert.Len(t, store.events, 1)
}

func TestProcessImage_StorageErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.failCreateEvent = errors.New("connection refused")
	det := &fakeDetector{faces: []vision.Face{goodFace()}}
	ext := &fakeExtractor{embeddings: [][]float32{{1, 0}}, errAt: -1}
	svc := newTestService(t, serviceVisionConfig(), store, det, ext)

	_, err := svc.ProcessImage(context.Background(), []byte("jpeg"), "images/cam1/x.jpg", "cam1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
