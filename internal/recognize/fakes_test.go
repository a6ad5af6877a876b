package recognize

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/your-org/faceguard/internal/models"
	"github.com/your-org/faceguard/internal/vision"
)

type fakeSample struct {
	id        uuid.UUID
	embedding []float32
	imageKey  string
}

// fakeStore is an in-memory Store for orchestrator and learner tests.
// Samples are kept oldest-first per person.
type fakeStore struct {
	mu         sync.Mutex
	embeddings []models.KnownEmbedding
	persons    map[uuid.UUID]*models.Person
	samples    map[uuid.UUID][]fakeSample
	events     []*models.Event

	embeddingsCalls int
	personSeq       int

	failCreateEvent error
	failAddSample   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		persons: make(map[uuid.UUID]*models.Person),
		samples: make(map[uuid.UUID][]fakeSample),
	}
}

func (f *fakeStore) AllEmbeddings(ctx context.Context) ([]models.KnownEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeddingsCalls++
	return append([]models.KnownEmbedding(nil), f.embeddings...), nil
}

func (f *fakeStore) GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.persons[id], nil
}

func (f *fakeStore) CreatePersonWithSample(ctx context.Context, name string, embedding []float32, imageKey string, quality float32, bbox models.BBox) (*models.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.personSeq++
	if name == "" {
		name = fmt.Sprintf("Unbekannt #%d", f.personSeq)
	}
	p := &models.Person{ID: uuid.New(), Name: name}
	f.persons[p.ID] = p
	f.samples[p.ID] = append(f.samples[p.ID], fakeSample{id: uuid.New(), embedding: embedding, imageKey: imageKey})
	f.embeddings = append(f.embeddings, models.KnownEmbedding{PersonID: p.ID, Embedding: embedding})
	return p, nil
}

func (f *fakeStore) AddFaceSample(ctx context.Context, personID uuid.UUID, embedding []float32, imageKey string, quality float32, bbox models.BBox) (*models.FaceSample, error) {
	if f.failAddSample != nil {
		return nil, f.failAddSample
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.persons[personID]; !ok {
		return nil, errors.New("person not found")
	}
	s := fakeSample{id: uuid.New(), embedding: embedding, imageKey: imageKey}
	f.samples[personID] = append(f.samples[personID], s)
	return &models.FaceSample{ID: s.id, PersonID: personID, Embedding: embedding}, nil
}

func (f *fakeStore) CountFaceSamples(ctx context.Context, personID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.samples[personID]), nil
}

func (f *fakeStore) OldestFaceSample(ctx context.Context, personID uuid.UUID) (*uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ss := f.samples[personID]
	if len(ss) == 0 {
		return nil, nil
	}
	id := ss[0].id
	return &id, nil
}

func (f *fakeStore) DeleteFaceSample(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pid, ss := range f.samples {
		for i, s := range ss {
			if s.id == id {
				f.samples[pid] = append(ss[:i:i], ss[i+1:]...)
				return nil
			}
		}
	}
	return errors.New("sample not found")
}

func (f *fakeStore) CreateEvent(ctx context.Context, ev *models.Event) error {
	if f.failCreateEvent != nil {
		return f.failCreateEvent
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ev.ID = uuid.New()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeStore) SetEventPerson(ctx context.Context, eventID, personID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.events {
		if ev.ID == eventID {
			id := personID
			ev.PersonID = &id
			return nil
		}
	}
	return errors.New("event not found")
}

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	if f.failPut != nil {
		return f.failPut
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

type fakeDetector struct {
	faces []vision.Face
}

func (f *fakeDetector) Detect(image []byte) []vision.Face {
	return f.faces
}

// fakeExtractor returns a fixed embedding per face index and a static crop.
type fakeExtractor struct {
	embeddings [][]float32
	errAt      int // face index that fails extraction, -1 for none
	calls      int
}

func (f *fakeExtractor) Extract(image []byte, face vision.Face) ([]float32, error) {
	i := f.calls
	f.calls++
	if f.errAt >= 0 && i == f.errAt {
		return nil, errors.New("inference failed")
	}
	return f.embeddings[i], nil
}

func (f *fakeExtractor) Crop(image []byte, bbox models.BBox) ([]byte, error) {
	return []byte("jpeg-crop"), nil
}
