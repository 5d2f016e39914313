// Package storage holds the storable form of a published catalog. The
// sqlite, postgres and local subpackages persist it.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/callumalpass/study-program/internal/curriculum"
	"github.com/callumalpass/study-program/internal/digest"
	"github.com/callumalpass/study-program/internal/domain"
)

// ErrNotFound is returned when a record is not in the catalog
var ErrNotFound = errors.New("not found")

// Snapshot is a whole catalog ready to be written to a sink.
type Snapshot struct {
	Digest    string           `json:"digest"`
	CreatedAt time.Time        `json:"created_at"`
	Subjects  []SubjectRecord  `json:"subjects"`
	Exercises []ExerciseRecord `json:"exercises"`
	Warnings  []string         `json:"warnings,omitempty"` // validation warnings the catalog was published with
}

// SubjectRecord is one subject row.
type SubjectRecord struct {
	ID          string        `json:"id"`
	Position    int           `json:"position"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Topics      []TopicRecord `json:"topics"`
	Digest      string        `json:"digest"`
}

// TopicRecord is a declared topic of a subject.
type TopicRecord struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ExerciseRecord is the flattened form of an exercise. Variant payload lives
// in Body as JSON.
type ExerciseRecord struct {
	ID          string          `json:"id"`
	SubjectID   string          `json:"subject_id"`
	TopicID     string          `json:"topic_id"`
	Position    int             `json:"position"`
	Kind        string          `json:"kind"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Difficulty  int             `json:"difficulty"`
	Hints       []string        `json:"hints"`
	Language    string          `json:"language,omitempty"`
	Body        json.RawMessage `json:"body"`
	Digest      string          `json:"digest"`
}

type writtenBody struct {
	Solution string `json:"solution"`
}

type codingBody struct {
	StarterCode  string         `json:"starter_code"`
	SolutionCode string         `json:"solution_code"`
	TestCases    []testCaseBody `json:"test_cases"`
}

type testCaseBody struct {
	Args        []any  `json:"args"`
	Expected    any    `json:"expected"`
	Hidden      bool   `json:"hidden,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewSnapshot flattens a corpus. Positions are presentation order within
// each subject.
func NewSnapshot(c *curriculum.Corpus, now time.Time) (*Snapshot, error) {
	corpusDigest, err := digest.Corpus(c)
	if err != nil {
		return nil, fmt.Errorf("digest corpus: %w", err)
	}

	snap := &Snapshot{
		Digest:    corpusDigest,
		CreatedAt: now.UTC(),
		Subjects:  []SubjectRecord{},
		Exercises: make([]ExerciseRecord, 0, c.Len()),
	}

	for i, s := range c.Subjects() {
		meta := s.Meta()
		subjectDigest, err := digest.Subject(s)
		if err != nil {
			return nil, fmt.Errorf("digest subject %s: %w", meta.ID, err)
		}
		rec := SubjectRecord{
			ID:          meta.ID,
			Position:    i,
			Title:       meta.Title,
			Description: meta.Description,
			Digest:      subjectDigest,
		}
		for _, t := range s.Topics() {
			rec.Topics = append(rec.Topics, TopicRecord{ID: t.TopicID, Title: t.Title})
		}
		snap.Subjects = append(snap.Subjects, rec)

		for pos, e := range s.Exercises() {
			er, err := NewExerciseRecord(e, pos)
			if err != nil {
				return nil, err
			}
			snap.Exercises = append(snap.Exercises, er)
		}
	}

	return snap, nil
}

// NewExerciseRecord flattens one exercise.
func NewExerciseRecord(e domain.Exercise, position int) (ExerciseRecord, error) {
	exerciseDigest, err := digest.Exercise(e)
	if err != nil {
		return ExerciseRecord{}, err
	}

	rec := ExerciseRecord{
		ID:          e.ID,
		SubjectID:   e.SubjectID,
		TopicID:     e.TopicID,
		Position:    position,
		Kind:        string(e.Kind()),
		Title:       e.Title,
		Description: e.Description,
		Difficulty:  int(e.Difficulty),
		Hints:       append([]string{}, e.Hints...),
		Digest:      exerciseDigest,
	}

	var body []byte
	switch b := e.Body.(type) {
	case domain.Written:
		body, err = json.Marshal(writtenBody{Solution: b.Solution})
	case domain.Coding:
		rec.Language = string(b.Language)
		cb := codingBody{
			StarterCode:  b.StarterCode,
			SolutionCode: b.SolutionCode,
			TestCases:    make([]testCaseBody, len(b.TestCases)),
		}
		for i, tc := range b.TestCases {
			cb.TestCases[i] = testCaseBody{Args: tc.Args, Expected: tc.Expected, Hidden: tc.Hidden, Description: tc.Description}
		}
		body, err = json.Marshal(cb)
	default:
		return ExerciseRecord{}, fmt.Errorf("exercise %s: %w", e.ID, domain.ErrInvalidInput)
	}
	if err != nil {
		return ExerciseRecord{}, fmt.Errorf("marshal body of %s: %w", e.ID, err)
	}
	rec.Body = body
	return rec, nil
}

// Exercise rebuilds the domain exercise. Numbers inside test case values come
// back as float64.
func (r ExerciseRecord) Exercise() (domain.Exercise, error) {
	kind, err := domain.ParseKind(r.Kind)
	if err != nil {
		return domain.Exercise{}, fmt.Errorf("exercise %s: %w", r.ID, err)
	}

	difficulty := domain.Difficulty(r.Difficulty)
	switch kind {
	case domain.KindWritten:
		var b writtenBody
		if err := json.Unmarshal(r.Body, &b); err != nil {
			return domain.Exercise{}, fmt.Errorf("unmarshal body of %s: %w", r.ID, err)
		}
		return domain.NewWritten(r.ID, r.SubjectID, r.TopicID, r.Title, r.Description, difficulty, r.Hints, b.Solution), nil

	default:
		var b codingBody
		if err := json.Unmarshal(r.Body, &b); err != nil {
			return domain.Exercise{}, fmt.Errorf("unmarshal body of %s: %w", r.ID, err)
		}
		cases := make([]domain.TestCase, len(b.TestCases))
		for i, tc := range b.TestCases {
			cases[i] = domain.TestCase{Args: tc.Args, Expected: tc.Expected, Hidden: tc.Hidden, Description: tc.Description}
		}
		return domain.NewCoding(r.ID, r.SubjectID, r.TopicID, r.Title, r.Description, difficulty, r.Hints, domain.Coding{
			StarterCode:  b.StarterCode,
			SolutionCode: b.SolutionCode,
			Language:     domain.Language(r.Language),
			TestCases:    cases,
		}), nil
	}
}
