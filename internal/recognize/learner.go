package recognize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/faceguard/internal/config"
	"github.com/your-org/faceguard/internal/models"
	"github.com/your-org/faceguard/internal/observability"
	"github.com/your-org/faceguard/internal/storage"
	"github.com/your-org/faceguard/internal/vision"
)

// Learner decides whether an accepted match should grow the person's
// reference sample set. Every gate (enabled, match status, quality,
// cooldown, capacity) aborts silently; only storage failures are errors.
//
// Cooldown state lives in memory only and resets on process restart.
type Learner struct {
	cfg         config.LearningConfig
	minFaceSize int
	minQuality  float64
	store       Store
	blobs       BlobStore

	mu        sync.Mutex
	cooldowns map[uuid.UUID]*cooldownEntry

	now func() time.Time // overridable in tests
}

// cooldownEntry serializes learns per person: holding its lock covers the
// whole check-then-write sequence, so two parallel learns for the same
// person cannot both pass the cooldown check.
type cooldownEntry struct {
	mu   sync.Mutex
	last time.Time
}

// NewLearner validates the replacement strategy up front. Only "oldest" is
// implemented; any other configured strategy is a configuration error, not
// a silent fallback.
func NewLearner(cfg config.LearningConfig, vcfg config.VisionConfig, store Store, blobs BlobStore) (*Learner, error) {
	switch cfg.ReplaceStrategy {
	case "", "oldest":
	default:
		return nil, fmt.Errorf("unsupported replace strategy %q (only \"oldest\" is implemented)", cfg.ReplaceStrategy)
	}

	return &Learner{
		cfg:         cfg,
		minFaceSize: vcfg.MinFaceSize,
		minQuality:  vcfg.MinQualityScore,
		store:       store,
		blobs:       blobs,
		cooldowns:   make(map[uuid.UUID]*cooldownEntry),
		now:         time.Now,
	}, nil
}

// Learn persists a new face sample for personID if all gates pass. Returns
// whether a sample was persisted. Gate rejections are a normal no-op;
// repeated rejected calls have no observable effect.
func (l *Learner) Learn(ctx context.Context, personID uuid.UUID, verdict Verdict, face vision.Face, embedding []float32, crop []byte) (bool, error) {
	if !l.cfg.Enabled {
		return false, nil
	}
	if l.cfg.OnlyGreenMatches && verdict.Status != models.StatusGreen {
		return false, nil
	}
	if face.BBox.Area() < l.minFaceSize || float64(face.Quality) < l.minQuality {
		slog.Debug("auto-learn skipped: low quality",
			"person_id", personID, "area", face.BBox.Area(), "quality", face.Quality)
		return false, nil
	}

	entry := l.entry(personID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	cooldown := time.Duration(l.cfg.CooldownSeconds) * time.Second
	if !entry.last.IsZero() && l.now().Sub(entry.last) < cooldown {
		slog.Debug("auto-learn skipped: cooldown active", "person_id", personID)
		return false, nil
	}

	count, err := l.store.CountFaceSamples(ctx, personID)
	if err != nil {
		return false, fmt.Errorf("count samples: %w", err)
	}
	if count >= l.cfg.MaxSamplesPerPerson {
		oldest, err := l.store.OldestFaceSample(ctx, personID)
		if err != nil {
			return false, fmt.Errorf("find oldest sample: %w", err)
		}
		if oldest != nil {
			if err := l.store.DeleteFaceSample(ctx, *oldest); err != nil {
				return false, fmt.Errorf("evict oldest sample: %w", err)
			}
			slog.Info("replaced oldest sample", "person_id", personID, "sample_id", *oldest)
		}
	}

	imageKey := ""
	if len(crop) > 0 && l.blobs != nil {
		imageKey = storage.FaceCropKey(personID, l.now())
		if err := l.blobs.PutObject(ctx, imageKey, crop, "image/jpeg"); err != nil {
			slog.Warn("store face crop", "person_id", personID, "error", err)
			imageKey = ""
		}
	}

	if _, err := l.store.AddFaceSample(ctx, personID, embedding, imageKey, face.Quality, face.BBox); err != nil {
		return false, fmt.Errorf("persist sample: %w", err)
	}

	entry.last = l.now()
	observability.SamplesLearned.Inc()
	slog.Info("auto-learned new sample", "person_id", personID, "quality", face.Quality)
	return true, nil
}

func (l *Learner) entry(personID uuid.UUID) *cooldownEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.cooldowns[personID]
	if !ok {
		e = &cooldownEntry{}
		l.cooldowns[personID] = e
	}
	return e
}
