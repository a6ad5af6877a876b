package recognize

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/faceguard/internal/config"
	"github.com/your-org/faceguard/internal/models"
)

func testMatcher() *Matcher {
	return NewMatcher(config.VisionConfig{
		ThresholdStrict: 0.35,
		ThresholdLoose:  0.50,
		MarginStrict:    0.15,
		MarginLoose:     0.08,
	})
}

func known(id uuid.UUID, emb []float32) models.KnownEmbedding {
	return models.KnownEmbedding{PersonID: id, Embedding: emb}
}

func TestMatch_EmptyReferenceSet(t *testing.T) {
	v := testMatcher().Match([]float32{1, 0, 0}, nil)

	assert.Equal(t, models.StatusUnknown, v.Status)
	assert.Nil(t, v.PersonID)
	assert.Equal(t, float32(unknownDistance), v.Distance)
	assert.Zero(t, v.Confidence)
}

func TestMatch_ExactMatchIsGreen(t *testing.T) {
	id := uuid.New()
	emb := []float32{0.6, 0.8, 0}

	v := testMatcher().Match(emb, []models.KnownEmbedding{known(id, emb)})

	require.Equal(t, models.StatusGreen, v.Status)
	require.NotNil(t, v.PersonID)
	assert.Equal(t, id, *v.PersonID)
	assert.InDelta(t, 0, v.Distance, 1e-6)
	// Distance 0 with a lone candidate saturates both terms.
	assert.Equal(t, float32(100), v.Confidence)
}

func TestMatch_BorderlineDistanceIsYellow(t *testing.T) {
	id := uuid.New()
	// cos sim 0.6 against the query, so distance 0.4: past the strict
	// threshold but inside the loose one.
	v := testMatcher().Match([]float32{1, 0}, []models.KnownEmbedding{
		known(id, []float32{0.6, 0.8}),
	})

	require.Equal(t, models.StatusYellow, v.Status)
	require.NotNil(t, v.PersonID)
	assert.Equal(t, id, *v.PersonID)
	assert.InDelta(t, 0.4, v.Distance, 1e-6)
	// base 10 for the loose band, margin bonus capped at 20.
	assert.InDelta(t, 30, v.Confidence, 0.11)
}

func TestMatch_AmbiguousMatchRejected(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	// Both candidates are nearly identical to the query. The best distance
	// alone would be a clear GREEN, but the runner-up is too close.
	v := testMatcher().Match([]float32{1, 0}, []models.KnownEmbedding{
		known(a, []float32{1, 0}),
		known(b, []float32{1, 0.1}),
	})

	assert.Equal(t, models.StatusUnknown, v.Status)
	assert.Nil(t, v.PersonID, "UNKNOWN verdict must not carry a person id")
	assert.Less(t, v.Margin, float32(0.08))
}

func TestMatch_FarQueryIsUnknown(t *testing.T) {
	v := testMatcher().Match([]float32{1, 0}, []models.KnownEmbedding{
		known(uuid.New(), []float32{0, 1}),
	})

	assert.Equal(t, models.StatusUnknown, v.Status)
	assert.Nil(t, v.PersonID)
	assert.InDelta(t, 1.0, v.Distance, 1e-6)
	// Distance past the loose threshold zeroes the base term; only the
	// capped margin bonus remains.
	assert.InDelta(t, 20, v.Confidence, 1e-3)
}

func TestMatch_MarginNeverNegative(t *testing.T) {
	m := testMatcher()
	refs := []models.KnownEmbedding{
		known(uuid.New(), []float32{1, 0, 0}),
		known(uuid.New(), []float32{0, 1, 0}),
		known(uuid.New(), []float32{0.7, 0.7, 0.1}),
	}
	for _, q := range [][]float32{{1, 0, 0}, {0.5, 0.5, 0.5}, {0, 0, 1}} {
		v := m.Match(q, refs)
		assert.GreaterOrEqual(t, v.Margin, float32(0))
	}
}

func TestMatch_ConfidenceRounding(t *testing.T) {
	id := uuid.New()
	v := testMatcher().Match([]float32{1, 0}, []models.KnownEmbedding{
		known(id, []float32{0.6, 0.8}),
	})

	// One decimal place.
	assert.InDelta(t, v.Confidence, float32(int(v.Confidence*10))/10, 1e-4)
	assert.LessOrEqual(t, v.Confidence, float32(100))
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, CosineDistance([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 1, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, 2, CosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Degenerate inputs map to the maximum distance.
	assert.Equal(t, 2.0, CosineDistance([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, 2.0, CosineDistance(nil, nil))
	assert.Equal(t, 2.0, CosineDistance([]float32{0, 0}, []float32{1, 0}))
}
