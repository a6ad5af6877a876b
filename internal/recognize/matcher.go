package recognize

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/your-org/faceguard/internal/config"
	"github.com/your-org/faceguard/internal/models"
)

// unknownDistance is the sentinel for "no comparison possible".
const unknownDistance = 999.0

// Verdict is the transient output of one match: best candidate, its
// distance, the margin to the runner-up and the derived status.
type Verdict struct {
	PersonID   *uuid.UUID
	Distance   float32
	Margin     float32
	Status     models.EventStatus
	Confidence float32 // 0..100
}

// Matcher decides GREEN/YELLOW/UNKNOWN for a query embedding against a
// snapshot of known embeddings. Two threshold/margin pairs are applied: the
// strict pair gates reliable matches, the loose pair uncertain ones. The
// margin requirement rejects confident-but-ambiguous matches where the
// second-best candidate is nearly as close as the best.
type Matcher struct {
	thresholdStrict float64
	thresholdLoose  float64
	marginStrict    float64
	marginLoose     float64
}

func NewMatcher(cfg config.VisionConfig) *Matcher {
	return &Matcher{
		thresholdStrict: cfg.ThresholdStrict,
		thresholdLoose:  cfg.ThresholdLoose,
		marginStrict:    cfg.MarginStrict,
		marginLoose:     cfg.MarginLoose,
	}
}

// Match compares the query embedding against every known embedding and
// returns a verdict. An UNKNOWN verdict never carries a person id, even
// when a best candidate existed.
func (m *Matcher) Match(query []float32, known []models.KnownEmbedding) Verdict {
	if len(known) == 0 {
		return Verdict{
			Distance: unknownDistance,
			Status:   models.StatusUnknown,
		}
	}

	type candidate struct {
		personID uuid.UUID
		distance float64
	}

	candidates := make([]candidate, 0, len(known))
	for _, ke := range known {
		candidates = append(candidates, candidate{
			personID: ke.PersonID,
			distance: CosineDistance(query, ke.Embedding),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	best := candidates[0]
	d1 := best.distance
	d2 := float64(unknownDistance)
	if len(candidates) > 1 {
		d2 = candidates[1].distance
	}
	margin := d2 - d1

	var status models.EventStatus
	switch {
	case d1 < m.thresholdStrict && margin > m.marginStrict:
		status = models.StatusGreen
	case d1 < m.thresholdLoose && margin > m.marginLoose:
		status = models.StatusYellow
	default:
		status = models.StatusUnknown
	}

	// Map distance to 0..100, then reward an unambiguous margin.
	var base float64
	if d1 < m.thresholdStrict {
		base = (m.thresholdLoose - d1) / (m.thresholdLoose - m.thresholdStrict) * 100
	} else {
		base = math.Max(0, (m.thresholdLoose-d1)/m.thresholdLoose*50)
	}
	marginBonus := math.Min(margin/m.marginStrict*20, 20)
	confidence := math.Min(100, base+marginBonus)

	v := Verdict{
		Distance:   float32(d1),
		Margin:     float32(margin),
		Status:     status,
		Confidence: float32(math.Round(confidence*10) / 10),
	}
	if status != models.StatusUnknown {
		id := best.personID
		v.PersonID = &id
	}
	return v
}

// CosineDistance computes 1 - cosine similarity between two vectors.
// Returns a value between 0 (identical) and 2 (opposite); invalid or zero
// vectors yield the maximum distance.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 2.0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}

	return 1 - sim
}
