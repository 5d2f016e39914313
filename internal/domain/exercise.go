package domain

import (
	"fmt"
	"slices"
)

// Exercise is one authored question. The common fields are shared by every
// variant; variant-specific data lives in Body.
type Exercise struct {
	ID          string // globally unique: "cs101-t2-ex03"
	SubjectID   string
	TopicID     string
	Title       string
	Description string
	Difficulty  Difficulty
	Hints       []string // revealed progressively, may be empty
	Body        Body
}

// Kind is the discriminant of an exercise variant.
type Kind string

const (
	KindWritten Kind = "written"
	KindCoding  Kind = "coding"
)

// ParseKind converts a discriminant string to a Kind
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindWritten, KindCoding:
		return k, nil
	default:
		return "", fmt.Errorf("unknown discriminant value %q", s)
	}
}

// Difficulty is an ordinal rating on a fixed scale.
type Difficulty int

const (
	MinDifficulty Difficulty = 1
	MaxDifficulty Difficulty = 5
)

// Valid reports whether d lies within [MinDifficulty, MaxDifficulty].
func (d Difficulty) Valid() bool {
	return d >= MinDifficulty && d <= MaxDifficulty
}

// Body is the variant payload of an exercise. It is implemented only by
// Written and Coding.
type Body interface {
	Kind() Kind
	sealed()
}

// Written is an exercise answered in prose. Solution is opaque text.
type Written struct {
	Solution string
}

func (Written) Kind() Kind { return KindWritten }
func (Written) sealed()    {}

// Coding is a kata with starter code and test cases.
type Coding struct {
	StarterCode  string
	SolutionCode string
	Language     Language
	TestCases    []TestCase
}

func (Coding) Kind() Kind { return KindCoding }
func (Coding) sealed()    {}

// TestCase is structured grading data: explicit arguments and the expected
// return value. It is never evaluated here.
type TestCase struct {
	Args        []any
	Expected    any
	Hidden      bool
	Description string
}

// NewWritten builds a written exercise.
func NewWritten(id, subjectID, topicID, title, description string, difficulty Difficulty, hints []string, solution string) Exercise {
	return Exercise{
		ID:          id,
		SubjectID:   subjectID,
		TopicID:     topicID,
		Title:       title,
		Description: description,
		Difficulty:  difficulty,
		Hints:       nonNil(hints),
		Body:        Written{Solution: solution},
	}
}

// NewCoding builds a coding exercise.
func NewCoding(id, subjectID, topicID, title, description string, difficulty Difficulty, hints []string, body Coding) Exercise {
	body.TestCases = slices.Clone(body.TestCases)
	return Exercise{
		ID:          id,
		SubjectID:   subjectID,
		TopicID:     topicID,
		Title:       title,
		Description: description,
		Difficulty:  difficulty,
		Hints:       nonNil(hints),
		Body:        body,
	}
}

// Kind returns the variant discriminant, or "" when Body is unset.
func (e Exercise) Kind() Kind {
	if e.Body == nil {
		return ""
	}
	return e.Body.Kind()
}

// Written returns the written payload if e is a written exercise.
func (e Exercise) Written() (Written, bool) {
	w, ok := e.Body.(Written)
	return w, ok
}

// Coding returns the coding payload if e is a coding exercise.
func (e Exercise) Coding() (Coding, bool) {
	c, ok := e.Body.(Coding)
	return c, ok
}

// HintAt returns the hint at position i in reveal order.
func (e Exercise) HintAt(i int) (string, bool) {
	if i < 0 || i >= len(e.Hints) {
		return "", false
	}
	return e.Hints[i], true
}

// VisibleTestCases returns the test cases shown to the learner.
func (c Coding) VisibleTestCases() []TestCase {
	var visible []TestCase
	for _, tc := range c.TestCases {
		if !tc.Hidden {
			visible = append(visible, tc)
		}
	}
	return visible
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
