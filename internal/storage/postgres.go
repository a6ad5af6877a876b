package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/faceguard/internal/config"
	"github.com/your-org/faceguard/internal/models"
)

// ErrNotFound is returned when the referenced row does not exist or is a
// tombstone.
var ErrNotFound = errors.New("not found")

// ErrSelfMerge is returned when a merge names the same person twice.
var ErrSelfMerge = errors.New("cannot merge a person into itself")

// autoNamePrefix is used for persons created without an explicit name.
const autoNamePrefix = "Unbekannt #"

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates tables and indexes if they don't exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS person (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			merged_into UUID REFERENCES person(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS face_sample (
			id UUID PRIMARY KEY,
			person_id UUID NOT NULL REFERENCES person(id) ON DELETE CASCADE,
			embedding BYTEA NOT NULL,
			image_key TEXT NOT NULL,
			quality REAL NOT NULL DEFAULT 0,
			bbox TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS event (
			id UUID PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
			person_id UUID REFERENCES person(id),
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			distance DOUBLE PRECISION NOT NULL DEFAULT 999.0,
			margin DOUBLE PRECISION NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			image_key TEXT NOT NULL,
			device_id TEXT,
			embedding vector(128)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_person_name ON person(name)`,
		`CREATE INDEX IF NOT EXISTS idx_face_sample_person ON face_sample(person_id)`,
		`CREATE INDEX IF NOT EXISTS idx_event_person ON event(person_id)`,
		`CREATE INDEX IF NOT EXISTS idx_event_timestamp ON event(timestamp DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// --- Persons ---

// CreatePerson inserts a new person. An empty name auto-generates a
// sequential display name from the count of existing auto-named persons.
func (s *PostgresStore) CreatePerson(ctx context.Context, name string) (*models.Person, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create person: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := createPersonTx(ctx, tx, name)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create person: %w", err)
	}
	return p, nil
}

func createPersonTx(ctx context.Context, tx pgx.Tx, name string) (*models.Person, error) {
	if name == "" {
		var count int
		err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM person WHERE name LIKE $1`, autoNamePrefix+"%",
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("count auto-named persons: %w", err)
		}
		name = fmt.Sprintf("%s%d", autoNamePrefix, count+1)
	}

	p := &models.Person{
		ID:   uuid.New(),
		Name: name,
	}
	err := tx.QueryRow(ctx,
		`INSERT INTO person (id, name) VALUES ($1, $2) RETURNING created_at, updated_at`,
		p.ID, p.Name,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}
	return p, nil
}

// GetPerson returns nil for nonexistent or tombstoned (merged-away) persons.
func (s *PostgresStore) GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	p := &models.Person{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, merged_into, created_at, updated_at
		 FROM person WHERE id = $1 AND merged_into IS NULL`, id,
	).Scan(&p.ID, &p.Name, &p.MergedInto, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

// ListPersons returns all persons, excluding tombstones unless requested.
func (s *PostgresStore) ListPersons(ctx context.Context, includeMerged bool) ([]models.Person, error) {
	query := `SELECT id, name, merged_into, created_at, updated_at FROM person
		 WHERE merged_into IS NULL ORDER BY created_at DESC`
	if includeMerged {
		query = `SELECT id, name, merged_into, created_at, updated_at FROM person
		 ORDER BY created_at DESC`
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var persons []models.Person
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.MergedInto, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

func (s *PostgresStore) RenamePerson(ctx context.Context, id uuid.UUID, name string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE person SET name = $1, updated_at = now() WHERE id = $2 AND merged_into IS NULL`,
		name, id)
	if err != nil {
		return fmt.Errorf("rename person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rename person %s: %w", id, ErrNotFound)
	}
	return nil
}

// MergePersons reassigns all of from's face samples and events to into,
// then tombstones from. The whole operation is a single transaction; both
// person rows are locked in a stable order so concurrent merges over
// overlapping ids cannot interleave.
func (s *PostgresStore) MergePersons(ctx context.Context, from, into uuid.UUID) error {
	if from == into {
		return fmt.Errorf("merge person %s: %w", from, ErrSelfMerge)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback(ctx)

	first, second := from, into
	if second.String() < first.String() {
		first, second = second, first
	}
	for _, id := range []uuid.UUID{first, second} {
		var merged *uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT merged_into FROM person WHERE id = $1 FOR UPDATE`, id,
		).Scan(&merged)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("merge person %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("lock person %s: %w", id, err)
		}
		if merged != nil {
			return fmt.Errorf("merge person %s: already merged away", id)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE face_sample SET person_id = $1 WHERE person_id = $2`, into, from); err != nil {
		return fmt.Errorf("reassign face samples: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE event SET person_id = $1 WHERE person_id = $2`, into, from); err != nil {
		return fmt.Errorf("reassign events: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE person SET merged_into = $1, updated_at = now() WHERE id = $2`, into, from); err != nil {
		return fmt.Errorf("tombstone person: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	return nil
}

// DeletePerson hard-deletes the person with all samples and events.
func (s *PostgresStore) DeletePerson(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete person: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM face_sample WHERE person_id = $1`, id); err != nil {
		return fmt.Errorf("delete face samples: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM event WHERE person_id = $1`, id); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM person WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete person %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete person: %w", err)
	}
	return nil
}

// --- Face samples ---

// AddFaceSample persists one embedding for a person. Inserting against a
// tombstoned or missing person is rejected.
func (s *PostgresStore) AddFaceSample(ctx context.Context, personID uuid.UUID, embedding []float32, imageKey string, quality float32, bbox models.BBox) (*models.FaceSample, error) {
	fs := &models.FaceSample{
		ID:        uuid.New(),
		PersonID:  personID,
		Embedding: embedding,
		ImageKey:  imageKey,
		Quality:   quality,
		BBox:      bbox,
	}

	bboxJSON, err := json.Marshal(bbox)
	if err != nil {
		return nil, fmt.Errorf("marshal bbox: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO face_sample (id, person_id, embedding, image_key, quality, bbox)
		 SELECT $1, $2, $3, $4, $5, $6
		 WHERE EXISTS (SELECT 1 FROM person WHERE id = $2 AND merged_into IS NULL)
		 RETURNING created_at`,
		fs.ID, fs.PersonID, EncodeEmbedding(embedding), fs.ImageKey, fs.Quality, string(bboxJSON),
	).Scan(&fs.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("add face sample for %s: %w", personID, ErrNotFound)
		}
		return nil, fmt.Errorf("add face sample: %w", err)
	}
	return fs, nil
}

func (s *PostgresStore) ListFaceSamples(ctx context.Context, personID uuid.UUID) ([]models.FaceSample, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, person_id, embedding, image_key, quality, bbox, created_at
		 FROM face_sample WHERE person_id = $1 ORDER BY created_at DESC`, personID)
	if err != nil {
		return nil, fmt.Errorf("list face samples: %w", err)
	}
	defer rows.Close()

	var samples []models.FaceSample
	for rows.Next() {
		var fs models.FaceSample
		var blob []byte
		var bboxJSON *string
		if err := rows.Scan(&fs.ID, &fs.PersonID, &blob, &fs.ImageKey, &fs.Quality, &bboxJSON, &fs.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan face sample: %w", err)
		}
		if fs.Embedding, err = DecodeEmbedding(blob); err != nil {
			return nil, fmt.Errorf("decode sample %s: %w", fs.ID, err)
		}
		if bboxJSON != nil {
			if err := json.Unmarshal([]byte(*bboxJSON), &fs.BBox); err != nil {
				return nil, fmt.Errorf("decode bbox of sample %s: %w", fs.ID, err)
			}
		}
		samples = append(samples, fs)
	}
	return samples, rows.Err()
}

func (s *PostgresStore) CountFaceSamples(ctx context.Context, personID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM face_sample WHERE person_id = $1`, personID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count face samples: %w", err)
	}
	return count, nil
}

// OldestFaceSample returns the id of the person's oldest sample by creation
// time, or nil when the person has no samples.
func (s *PostgresStore) OldestFaceSample(ctx context.Context, personID uuid.UUID) (*uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM face_sample WHERE person_id = $1 ORDER BY created_at ASC LIMIT 1`,
		personID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("oldest face sample: %w", err)
	}
	return &id, nil
}

func (s *PostgresStore) DeleteFaceSample(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM face_sample WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete face sample: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete face sample %s: %w", id, ErrNotFound)
	}
	return nil
}

// AllEmbeddings returns a point-in-time snapshot of (person, embedding)
// pairs across all non-tombstone persons. A single query keeps the snapshot
// consistent; matching never mixes pre- and post-merge state.
func (s *PostgresStore) AllEmbeddings(ctx context.Context) ([]models.KnownEmbedding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT fs.person_id, fs.embedding
		 FROM face_sample fs
		 JOIN person p ON p.id = fs.person_id
		 WHERE p.merged_into IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("all embeddings: %w", err)
	}
	defer rows.Close()

	var known []models.KnownEmbedding
	for rows.Next() {
		var ke models.KnownEmbedding
		var blob []byte
		if err := rows.Scan(&ke.PersonID, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		if ke.Embedding, err = DecodeEmbedding(blob); err != nil {
			return nil, fmt.Errorf("decode embedding of person %s: %w", ke.PersonID, err)
		}
		known = append(known, ke)
	}
	return known, rows.Err()
}

// CreatePersonWithSample creates a person and its first face sample in one
// transaction, so a crash cannot leave a person without a reference sample.
func (s *PostgresStore) CreatePersonWithSample(ctx context.Context, name string, embedding []float32, imageKey string, quality float32, bbox models.BBox) (*models.Person, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create person with sample: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := createPersonTx(ctx, tx, name)
	if err != nil {
		return nil, err
	}

	bboxJSON, err := json.Marshal(bbox)
	if err != nil {
		return nil, fmt.Errorf("marshal bbox: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO face_sample (id, person_id, embedding, image_key, quality, bbox)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), p.ID, EncodeEmbedding(embedding), imageKey, quality, string(bboxJSON))
	if err != nil {
		return nil, fmt.Errorf("insert first sample: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create person with sample: %w", err)
	}
	return p, nil
}

// --- Events ---

// CreateEvent appends one audit record and fills in its generated id and
// timestamp.
func (s *PostgresStore) CreateEvent(ctx context.Context, ev *models.Event) error {
	ev.ID = uuid.New()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	var vec *pgvector.Vector
	if len(ev.Embedding) > 0 {
		v := pgvector.NewVector(ev.Embedding)
		vec = &v
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO event (id, timestamp, person_id, confidence, distance, margin, status, image_key, device_id, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ev.ID, ev.Timestamp, ev.PersonID, ev.Confidence, ev.Distance, ev.Margin,
		ev.Status, ev.ImageKey, ev.DeviceID, vec)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// SetEventPerson backfills an event's person id after late person creation.
// This is the only permitted event mutation.
func (s *PostgresStore) SetEventPerson(ctx context.Context, eventID, personID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE event SET person_id = $1 WHERE id = $2`, personID, eventID)
	if err != nil {
		return fmt.Errorf("set event person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set event person %s: %w", eventID, ErrNotFound)
	}
	return nil
}

// ListEvents returns events newest first, optionally filtered by person.
func (s *PostgresStore) ListEvents(ctx context.Context, limit int, personID *uuid.UUID) ([]models.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	query := `SELECT e.id, e.timestamp, e.person_id, e.confidence, e.distance, e.margin,
			e.status, e.image_key, e.device_id, COALESCE(p.name, '')
		 FROM event e
		 LEFT JOIN person p ON p.id = e.person_id`
	args := []interface{}{limit}
	if personID != nil {
		query += ` WHERE e.person_id = $2`
		args = append(args, *personID)
	}
	query += ` ORDER BY e.timestamp DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var ev models.Event
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.PersonID, &ev.Confidence,
			&ev.Distance, &ev.Margin, &ev.Status, &ev.ImageKey, &ev.DeviceID, &ev.PersonName); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// LatestEvent returns the most recent event, or nil when no event exists.
func (s *PostgresStore) LatestEvent(ctx context.Context) (*models.Event, error) {
	ev := &models.Event{}
	err := s.pool.QueryRow(ctx,
		`SELECT e.id, e.timestamp, e.person_id, e.confidence, e.distance, e.margin,
			e.status, e.image_key, e.device_id, COALESCE(p.name, '')
		 FROM event e
		 LEFT JOIN person p ON p.id = e.person_id
		 ORDER BY e.timestamp DESC LIMIT 1`,
	).Scan(&ev.ID, &ev.Timestamp, &ev.PersonID, &ev.Confidence, &ev.Distance,
		&ev.Margin, &ev.Status, &ev.ImageKey, &ev.DeviceID, &ev.PersonName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest event: %w", err)
	}
	return ev, nil
}

// SimilarEvent is one result of a similarity search over event history.
type SimilarEvent struct {
	Event models.Event
	Score float32 // cosine similarity, higher is closer
}

// GetEvent returns one event by id, nil when absent.
func (s *PostgresStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	ev := &models.Event{}
	err := s.pool.QueryRow(ctx,
		`SELECT e.id, e.timestamp, e.person_id, e.confidence, e.distance, e.margin,
			e.status, e.image_key, e.device_id, COALESCE(p.name, '')
		 FROM event e
		 LEFT JOIN person p ON p.id = e.person_id
		 WHERE e.id = $1`, id,
	).Scan(&ev.ID, &ev.Timestamp, &ev.PersonID, &ev.Confidence, &ev.Distance,
		&ev.Margin, &ev.Status, &ev.ImageKey, &ev.DeviceID, &ev.PersonName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// SimilarToEvent runs the similarity search seeded by an existing event's
// stored query embedding. Returns ErrNotFound when the event does not
// exist or carries no embedding (NO_FACE events).
func (s *PostgresStore) SimilarToEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]SimilarEvent, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT e.id, e.timestamp, e.person_id, e.confidence, e.distance, e.margin,
			e.status, e.image_key, e.device_id, COALESCE(p.name, ''),
			1 - (e.embedding <=> q.embedding) AS score
		 FROM event e
		 LEFT JOIN person p ON p.id = e.person_id,
		 (SELECT embedding FROM event WHERE id = $1 AND embedding IS NOT NULL) q
		 WHERE e.embedding IS NOT NULL AND e.id <> $1
		 ORDER BY e.embedding <=> q.embedding
		 LIMIT $2`, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("similar to event: %w", err)
	}
	defer rows.Close()

	var results []SimilarEvent
	for rows.Next() {
		var se SimilarEvent
		if err := rows.Scan(&se.Event.ID, &se.Event.Timestamp, &se.Event.PersonID,
			&se.Event.Confidence, &se.Event.Distance, &se.Event.Margin, &se.Event.Status,
			&se.Event.ImageKey, &se.Event.DeviceID, &se.Event.PersonName, &se.Score); err != nil {
			return nil, fmt.Errorf("scan similar event: %w", err)
		}
		results = append(results, se)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if results == nil {
		// Distinguish "no neighbours" from "no such seed event".
		var exists bool
		err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM event WHERE id = $1 AND embedding IS NOT NULL)`,
			eventID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check seed event: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
	}
	return results, nil
}

// --- Statistics ---

// Stats summarizes registry and event counts.
type Stats struct {
	TotalPersons  int `json:"total_persons"`
	TotalSamples  int `json:"total_samples"`
	TotalEvents   int `json:"total_events"`
	GreenEvents   int `json:"green_events"`
	YellowEvents  int `json:"yellow_events"`
	UnknownEvents int `json:"unknown_events"`
	NoFaceEvents  int `json:"no_face_events"`
}

func (s *PostgresStore) GetStats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := s.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM person WHERE merged_into IS NULL),
			(SELECT COUNT(*) FROM face_sample),
			(SELECT COUNT(*) FROM event),
			(SELECT COUNT(*) FROM event WHERE status = 'GREEN'),
			(SELECT COUNT(*) FROM event WHERE status = 'YELLOW'),
			(SELECT COUNT(*) FROM event WHERE status = 'UNKNOWN'),
			(SELECT COUNT(*) FROM event WHERE status = 'NO_FACE')`,
	).Scan(&st.TotalPersons, &st.TotalSamples, &st.TotalEvents,
		&st.GreenEvents, &st.YellowEvents, &st.UnknownEvents, &st.NoFaceEvents)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return st, nil
}
