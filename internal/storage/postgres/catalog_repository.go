// Package postgres writes published catalogs into a PostgreSQL schema.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/callumalpass/study-program/internal/storage"
)

// DefaultSchema is used when no schema is configured.
const DefaultSchema = "curriculum"

// Connect opens a connection pool and verifies it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// CatalogRepository implements catalog persistence using PostgreSQL
type CatalogRepository struct {
	pool   *pgxpool.Pool
	schema string
}

// NewCatalogRepository creates a repository writing into schema
func NewCatalogRepository(pool *pgxpool.Pool, schema string) *CatalogRepository {
	if schema == "" {
		schema = DefaultSchema
	}
	return &CatalogRepository{pool: pool, schema: schema}
}

// Name identifies the sink in logs.
func (r *CatalogRepository) Name() string { return "postgres" }

func (r *CatalogRepository) table(name string) string {
	return pq.QuoteIdentifier(r.schema) + "." + pq.QuoteIdentifier(name)
}

// EnsureSchema creates the schema and tables if they do not exist
func (r *CatalogRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pq.QuoteIdentifier(r.schema),
		`CREATE TABLE IF NOT EXISTS ` + r.table("catalog_meta") + ` (
			id           INTEGER PRIMARY KEY CHECK (id = 1),
			digest       TEXT NOT NULL,
			published_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + r.table("subjects") + ` (
			id          TEXT PRIMARY KEY,
			position    INTEGER NOT NULL,
			title       TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			topics      JSONB NOT NULL DEFAULT '[]',
			digest      TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + r.table("exercises") + ` (
			id          TEXT PRIMARY KEY,
			subject_id  TEXT NOT NULL REFERENCES ` + r.table("subjects") + `(id) ON DELETE CASCADE,
			topic_id    TEXT NOT NULL,
			position    INTEGER NOT NULL,
			kind        TEXT NOT NULL CHECK (kind IN ('written', 'coding')),
			title       TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			difficulty  INTEGER NOT NULL CHECK (difficulty BETWEEN 1 AND 5),
			hints       JSONB NOT NULL DEFAULT '[]',
			language    TEXT,
			body        JSONB NOT NULL,
			digest      TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + r.table("publications") + ` (
			id             BIGSERIAL PRIMARY KEY,
			digest         TEXT NOT NULL,
			subjects       INTEGER NOT NULL,
			exercise_count INTEGER NOT NULL,
			warnings       JSONB,
			published_at   TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema %s: %w", r.schema, err)
		}
	}
	return nil
}

// WriteCatalog replaces the stored catalog with snap in one transaction
func (r *CatalogRepository) WriteCatalog(ctx context.Context, snap *storage.Snapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+r.table("exercises")); err != nil {
		return fmt.Errorf("clear exercises: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM `+r.table("subjects")); err != nil {
		return fmt.Errorf("clear subjects: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO `+r.table("catalog_meta")+` (id, digest, published_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET digest = excluded.digest, published_at = excluded.published_at`,
		snap.Digest, snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert catalog meta: %w", err)
	}

	batch := &pgx.Batch{}
	for _, subj := range snap.Subjects {
		topics, err := json.Marshal(subj.Topics)
		if err != nil {
			return fmt.Errorf("marshal topics: %w", err)
		}
		batch.Queue(`
			INSERT INTO `+r.table("subjects")+` (id, position, title, description, topics, digest)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			subj.ID, subj.Position, subj.Title, subj.Description, topics, subj.Digest,
		)
	}
	for _, ex := range snap.Exercises {
		hints, err := json.Marshal(ex.Hints)
		if err != nil {
			return fmt.Errorf("marshal hints: %w", err)
		}
		var language *string
		if ex.Language != "" {
			language = &ex.Language
		}
		batch.Queue(`
			INSERT INTO `+r.table("exercises")+` (id, subject_id, topic_id, position, kind, title,
				description, difficulty, hints, language, body, digest)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			ex.ID, ex.SubjectID, ex.TopicID, ex.Position, ex.Kind, ex.Title,
			ex.Description, ex.Difficulty, hints, language, []byte(ex.Body), ex.Digest,
		)
	}

	warnings, err := nullJSON(snap.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	batch.Queue(`
		INSERT INTO `+r.table("publications")+` (digest, subjects, exercise_count, warnings, published_at)
		VALUES ($1, $2, $3, $4, $5)`,
		snap.Digest, len(snap.Subjects), len(snap.Exercises), warnings, snap.CreatedAt,
	)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write catalog rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}
	return nil
}

// Digest returns the digest of the stored catalog
func (r *CatalogRepository) Digest(ctx context.Context) (string, error) {
	var d string
	err := r.pool.QueryRow(ctx, `SELECT digest FROM `+r.table("catalog_meta")+` WHERE id = 1`).Scan(&d)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get digest: %w", err)
	}
	return d, nil
}

func (r *CatalogRepository) exerciseQuery() string {
	return `SELECT e.id, e.subject_id, e.topic_id, e.position, e.kind, e.title, e.description,
			e.difficulty, e.hints, e.language, e.body, e.digest
		FROM ` + r.table("exercises") + ` e
		JOIN ` + r.table("subjects") + ` s ON s.id = e.subject_id`
}

// ListExercises returns stored exercises in presentation order. An empty
// subjectID lists every subject.
func (r *CatalogRepository) ListExercises(ctx context.Context, subjectID string) ([]storage.ExerciseRecord, error) {
	query := r.exerciseQuery()
	var args []any
	if subjectID != "" {
		query += ` WHERE e.subject_id = $1`
		args = append(args, subjectID)
	}
	query += ` ORDER BY s.position, e.position`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var out []storage.ExerciseRecord
	for rows.Next() {
		rec, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetExercise retrieves one stored exercise by id
func (r *CatalogRepository) GetExercise(ctx context.Context, id string) (storage.ExerciseRecord, error) {
	rec, err := scanExercise(r.pool.QueryRow(ctx, r.exerciseQuery()+` WHERE e.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ExerciseRecord{}, fmt.Errorf("exercise %s: %w", id, storage.ErrNotFound)
	}
	return rec, err
}

// LastWarnings returns the warnings recorded with the latest publication
func (r *CatalogRepository) LastWarnings(ctx context.Context) ([]string, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT warnings FROM `+r.table("publications")+` ORDER BY id DESC LIMIT 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get warnings: %w", err)
	}

	msg := pqtype.NullRawMessage{RawMessage: raw, Valid: raw != nil}
	if !msg.Valid {
		return nil, nil
	}
	var warnings []string
	if err := json.Unmarshal(msg.RawMessage, &warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	return warnings, nil
}

func scanExercise(row pgx.Row) (storage.ExerciseRecord, error) {
	var (
		rec      storage.ExerciseRecord
		hints    []byte
		language *string
		body     []byte
	)
	err := row.Scan(&rec.ID, &rec.SubjectID, &rec.TopicID, &rec.Position, &rec.Kind,
		&rec.Title, &rec.Description, &rec.Difficulty, &hints, &language, &body, &rec.Digest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ExerciseRecord{}, err
		}
		return storage.ExerciseRecord{}, fmt.Errorf("scan exercise: %w", err)
	}
	if err := json.Unmarshal(hints, &rec.Hints); err != nil {
		return storage.ExerciseRecord{}, fmt.Errorf("unmarshal hints of %s: %w", rec.ID, err)
	}
	if language != nil {
		rec.Language = *language
	}
	rec.Body = json.RawMessage(body)
	return rec, nil
}

// nullJSON encodes v as a nullable JSON column; empty slices become NULL.
func nullJSON(v []string) (pqtype.NullRawMessage, error) {
	if len(v) == 0 {
		return pqtype.NullRawMessage{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}, nil
}
