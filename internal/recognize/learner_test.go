package recognize

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/faceguard/internal/config"
	"github.com/your-org/faceguard/internal/models"
	"github.com/your-org/faceguard/internal/vision"
)

func testLearnerConfig() config.LearningConfig {
	return config.LearningConfig{
		Enabled:             true,
		OnlyGreenMatches:    true,
		CooldownSeconds:     60,
		MaxSamplesPerPerson: 3,
		ReplaceStrategy:     "oldest",
	}
}

func testVisionConfig() config.VisionConfig {
	return config.VisionConfig{
		MinFaceSize:     10000,
		MinQualityScore: 0.6,
	}
}

func goodFace() vision.Face {
	return vision.Face{
		BBox:    models.BBox{10, 10, 200, 200},
		Score:   0.9,
		Quality: 0.95,
	}
}

func greenVerdict() Verdict {
	return Verdict{Status: models.StatusGreen, Distance: 0.1, Margin: 0.5, Confidence: 95}
}

func newTestLearner(t *testing.T, store *fakeStore) *Learner {
	t.Helper()
	l, err := NewLearner(testLearnerConfig(), testVisionConfig(), store, newFakeBlobStore())
	require.NoError(t, err)
	return l
}

func seedPerson(store *fakeStore, samples int) uuid.UUID {
	p, _ := store.CreatePersonWithSample(context.Background(), "Alice", []float32{1, 0}, "", 0.9, models.BBox{0, 0, 150, 150})
	for i := 1; i < samples; i++ {
		_, _ = store.AddFaceSample(context.Background(), p.ID, []float32{1, 0}, "", 0.9, models.BBox{0, 0, 150, 150})
	}
	return p.ID
}

func TestLearn_PersistsSample(t *testing.T) {
	store := newFakeStore()
	pid := seedPerson(store, 1)
	l := newTestLearner(t, store)

	learned, err := l.Learn(context.Background(), pid, greenVerdict(), goodFace(), []float32{1, 0}, []byte("crop"))
	require.NoError(t, err)
	assert.True(t, learned)

	n, _ := store.CountFaceSamples(context.Background(), pid)
	assert.Equal(t, 2, n)
}

func TestLearn_DisabledIsNoop(t *testing.T) {
	store := newFakeStore()
	pid := seedPerson(store, 1)
	cfg := testLearnerConfig()
	cfg.Enabled = false
	l, err := NewLearner(cfg, testVisionConfig(), store, nil)
	require.NoError(t, err)

	learned, err := l.Learn(context.Background(), pid, greenVerdict(), goodFace(), []float32{1, 0}, nil)
	require.NoError(t, err)
	assert.False(t, learned)

	n, _ := store.CountFaceSamples(context.Background(), pid)
	assert.Equal(t, 1, n)
}

func TestLearn_RejectsYellowWhenOnlyGreen(t *testing.T) {
	store := newFakeStore()
	pid := seedPerson(store, 1)
	l := newTestLearner(t, store)

	v := greenVerdict()
	v.Status = models.StatusYellow
	learned, err := l.Learn(context.Background(), pid, v, goodFace(), []float32{1, 0}, nil)
	require.NoError(t, err)
	assert.False(t, learned)
}

func TestLearn_QualityGateIsUnconditional(t *testing.T) {
	store := newFakeStore()
	pid := seedPerson(store, 1)
	l := newTestLearner(t, store)

	small := goodFace()
	small.BBox = models.BBox{0, 0, 50, 50} // area 2500 < 10000
	learned, err := l.Learn(context.Background(), pid, greenVerdict(), small, []float32{1, 0}, nil)
	require.NoError(t, err)
	assert.False(t, learned)

	blurry := goodFace()
	blurry.Quality = 0.3
	learned, err = l.Learn(context.Background(), pid, greenVerdict(), blurry, []float32{1, 0}, nil)
	require.NoError(t, err)
	assert.False(t, learned)

	n, _ := store.CountFaceSamples(context.Background(), pid)
	assert.Equal(t, 1, n)
}

func TestLearn_CooldownLimitsToOneSample(t *testing.T) {
	store := newFakeStore()
	pid := seedPerson(store, 1)
	l := newTestLearner(t, store)

	base := time.Now()
	l.now = func() time.Time { return base }

	learned, err := l.Learn(context.Background(), pid, greenVerdict(), goodFace(), []float32{1, 0}, nil)
	require.NoError(t, err)
	assert.True(t, learned)

	l.now = func() time.Time { return base.Add(30 * time.Second) }
	learned, err = l.Learn(context.Background(), pid, greenVerdict(), goodFace(), []float32{1, 0}, nil)
	require.NoError(t, err)
	assert.False(t, learned, "second learn inside the cooldown window must be rejected")

	l.now = func() time.Time { return base.Add(61 * time.Second) }
	learned, err = l.Learn(context.Background(), pid, greenVerdict(), goodFace(), []float32{1, 0}, nil)
	require.NoError(t, err)
	assert.True(t, learned, "learn after the cooldown window must pass")

	n, _ := store.CountFaceSamples(context.Background(), pid)
	assert.Equal(t, 3, n)
}

func TestLearn_CooldownIsPerPerson(t *testing.T) {
	store := newFakeStore()
	a := seedPerson(store, 1)
	b := seedPerson(store, 1)
	l := newTestLearner(t, store)

	learned, err := l.Learn(context.Background(), a, greenVerdict(), goodFace(), []float32{1, 0}, nil)
	require.NoError(t, err)
	assert.True(t, learned)

	learned, err = l.Learn(context.Background(), b, greenVerdict(), goodFace(), []float32{0, 1}, nil)
	require.NoError(t, err)
	assert.True(t, learned, "a different person is not affected by the first person's cooldown")
}

func TestLearn_EvictsOldestAtCapacity(t *testing.T) {
	store := newFakeStore()
	pid := seedPerson(store, 3) // at MaxSamplesPerPerson
	l := newTestLearner(t, store)

	oldest, err := store.OldestFaceSample(context.Background(), pid)
	require.NoError(t, err)
	require.NotNil(t, oldest)

	learned, err := l.Learn(context.Background(), pid, greenVerdict(), goodFace(), []float32{0.5, 0.5}, nil)
	require.NoError(t, err)
	assert.True(t, learned)

	n, _ := store.CountFaceSamples(context.Background(), pid)
	assert.Equal(t, 3, n, "capacity stays at the configured maximum")

	for _, s := range store.samples[pid] {
		assert.NotEqual(t, *oldest, s.id, "the oldest sample must have been evicted")
	}
}

func TestNewLearner_RejectsUnknownStrategy(t *testing.T) {
	cfg := testLearnerConfig()
	cfg.ReplaceStrategy = "lowest_quality"

	_, err := NewLearner(cfg, testVisionConfig(), newFakeStore(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lowest_quality")
}
