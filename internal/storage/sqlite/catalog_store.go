package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/callumalpass/study-program/internal/storage"
)

// CatalogStore persists published catalogs in SQLite. Each write replaces
// the previous catalog.
type CatalogStore struct {
	db *DB
}

// NewCatalogStore creates a new SQLite-backed catalog store.
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// Name identifies the sink in logs.
func (s *CatalogStore) Name() string { return "sqlite" }

// WriteCatalog replaces the stored catalog with snap in one transaction.
func (s *CatalogStore) WriteCatalog(ctx context.Context, snap *storage.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM exercises", "DELETE FROM subjects", "DELETE FROM catalog_meta"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear catalog: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO catalog_meta (id, digest, published_at) VALUES (1, ?, ?)",
		snap.Digest, snap.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert catalog meta: %w", err)
	}

	for _, subj := range snap.Subjects {
		topics, err := json.Marshal(subj.Topics)
		if err != nil {
			return fmt.Errorf("marshal topics: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subjects (id, position, title, description, topics, digest)
			VALUES (?, ?, ?, ?, ?, ?)`,
			subj.ID, subj.Position, subj.Title, subj.Description, string(topics), subj.Digest,
		); err != nil {
			return fmt.Errorf("insert subject %s: %w", subj.ID, err)
		}
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO exercises (id, subject_id, topic_id, position, kind, title, description,
			difficulty, hints, language, body, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare exercise insert: %w", err)
	}
	defer insert.Close()

	for _, ex := range snap.Exercises {
		hints, err := json.Marshal(ex.Hints)
		if err != nil {
			return fmt.Errorf("marshal hints: %w", err)
		}
		if _, err := insert.ExecContext(ctx,
			ex.ID, ex.SubjectID, ex.TopicID, ex.Position, ex.Kind, ex.Title, ex.Description,
			ex.Difficulty, string(hints), nullString(ex.Language), string(ex.Body), ex.Digest,
		); err != nil {
			return fmt.Errorf("insert exercise %s: %w", ex.ID, err)
		}
	}

	var warnings sql.NullString
	if len(snap.Warnings) > 0 {
		data, err := json.Marshal(snap.Warnings)
		if err != nil {
			return fmt.Errorf("marshal warnings: %w", err)
		}
		warnings = sql.NullString{String: string(data), Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO publications (digest, subjects, exercise_count, warnings, published_at)
		VALUES (?, ?, ?, ?, ?)`,
		snap.Digest, len(snap.Subjects), len(snap.Exercises), warnings, snap.CreatedAt,
	); err != nil {
		return fmt.Errorf("record publication: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}
	return nil
}

// Digest returns the digest of the stored catalog.
func (s *CatalogStore) Digest(ctx context.Context) (string, error) {
	var d string
	err := s.db.QueryRowContext(ctx, "SELECT digest FROM catalog_meta WHERE id = 1").Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get digest: %w", err)
	}
	return d, nil
}

// ListSubjects returns the stored subjects in order.
func (s *CatalogStore) ListSubjects(ctx context.Context) ([]storage.SubjectRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, position, title, description, topics, digest
		FROM subjects ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []storage.SubjectRecord
	for rows.Next() {
		var (
			rec    storage.SubjectRecord
			topics string
		)
		if err := rows.Scan(&rec.ID, &rec.Position, &rec.Title, &rec.Description, &topics, &rec.Digest); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		if err := json.Unmarshal([]byte(topics), &rec.Topics); err != nil {
			return nil, fmt.Errorf("unmarshal topics of %s: %w", rec.ID, err)
		}
		subjects = append(subjects, rec)
	}
	return subjects, rows.Err()
}

const exerciseColumns = `e.id, e.subject_id, e.topic_id, e.position, e.kind, e.title, e.description,
	e.difficulty, e.hints, e.language, e.body, e.digest`

// ListExercises returns stored exercises in presentation order. An empty
// subjectID lists every subject.
func (s *CatalogStore) ListExercises(ctx context.Context, subjectID string) ([]storage.ExerciseRecord, error) {
	query := `SELECT ` + exerciseColumns + `
		FROM exercises e JOIN subjects s ON s.id = e.subject_id`
	var args []any
	if subjectID != "" {
		query += " WHERE e.subject_id = ?"
		args = append(args, subjectID)
	}
	query += " ORDER BY s.position, e.position"

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// GetExercise retrieves one stored exercise by id.
func (s *CatalogStore) GetExercise(ctx context.Context, id string) (storage.ExerciseRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+exerciseColumns+` FROM exercises e WHERE e.id = ?`, id)
	rec, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ExerciseRecord{}, fmt.Errorf("exercise %s: %w", id, storage.ErrNotFound)
	}
	return rec, err
}

// Publication is one row of the publication history.
type Publication struct {
	ID            int64
	Digest        string
	Subjects      int
	ExerciseCount int
	Warnings      []string
	PublishedAt   time.Time
}

// Publications returns the publication history, newest first.
func (s *CatalogStore) Publications(ctx context.Context, limit int) ([]Publication, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, digest, subjects, exercise_count, warnings, published_at
		FROM publications ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list publications: %w", err)
	}
	defer rows.Close()

	var out []Publication
	for rows.Next() {
		var (
			p        Publication
			warnings sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Digest, &p.Subjects, &p.ExerciseCount, &warnings, &p.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan publication: %w", err)
		}
		if warnings.Valid {
			if err := json.Unmarshal([]byte(warnings.String), &p.Warnings); err != nil {
				return nil, fmt.Errorf("unmarshal warnings: %w", err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExercise(row scanner) (storage.ExerciseRecord, error) {
	var (
		rec      storage.ExerciseRecord
		hints    string
		language sql.NullString
		body     string
	)
	err := row.Scan(&rec.ID, &rec.SubjectID, &rec.TopicID, &rec.Position, &rec.Kind,
		&rec.Title, &rec.Description, &rec.Difficulty, &hints, &language, &body, &rec.Digest)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ExerciseRecord{}, err
		}
		return storage.ExerciseRecord{}, fmt.Errorf("scan exercise: %w", err)
	}
	if err := json.Unmarshal([]byte(hints), &rec.Hints); err != nil {
		return storage.ExerciseRecord{}, fmt.Errorf("unmarshal hints of %s: %w", rec.ID, err)
	}
	rec.Language = language.String
	rec.Body = json.RawMessage(body)
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
