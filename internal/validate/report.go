package validate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidCorpus is returned by Report.Err when any error-level
// violation was found.
var ErrInvalidCorpus = errors.New("invalid corpus")

// Severity grades a violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation codes
const (
	CodeSchema            = "schema"
	CodeDuplicateID       = "duplicate_id"
	CodeSubjectMismatch   = "subject_mismatch"
	CodeUnknownTopic      = "unknown_topic"
	CodeTopicMismatch     = "topic_mismatch"
	CodeDifficultyRange   = "difficulty_range"
	CodeNoTestCases       = "no_test_cases"
	CodeNoVisibleTestCase = "no_visible_test_case"
	CodeInvalidTestCase   = "invalid_test_case"
	CodeMissingLanguage   = "missing_language"
	CodeInvalidLanguage   = "invalid_language"
	CodeMissingID         = "missing_id"
	CodeMissingKind       = "missing_kind"
	CodeEmptyField        = "empty_field"
)

// Violation is one problem found in the corpus.
type Violation struct {
	Code       string   `json:"code"`
	Severity   Severity `json:"severity"`
	ExerciseID string   `json:"exercise_id,omitempty"`
	Locations  []string `json:"locations"`
	Message    string   `json:"message"`
}

func (v Violation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", v.Severity, v.Code)
	if v.ExerciseID != "" {
		fmt.Fprintf(&b, " %s", v.ExerciseID)
	}
	fmt.Fprintf(&b, ": %s", v.Message)
	if len(v.Locations) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(v.Locations, ", "))
	}
	return b.String()
}

// Report is the outcome of one validation pass.
type Report struct {
	RunID      uuid.UUID   `json:"run_id"`
	CheckedAt  time.Time   `json:"checked_at"`
	Strict     bool        `json:"strict"`
	Subjects   int         `json:"subjects"`
	Exercises  int         `json:"exercises"`
	Violations []Violation `json:"violations"`
}

// Valid reports whether the corpus has no error-level violations.
func (r *Report) Valid() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors returns the error-level violations.
func (r *Report) Errors() []Violation {
	return r.filter(SeverityError)
}

// Warnings returns the warning-level violations.
func (r *Report) Warnings() []Violation {
	return r.filter(SeverityWarning)
}

func (r *Report) filter(sev Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == sev {
			out = append(out, v)
		}
	}
	return out
}

// Count returns how many violations carry code.
func (r *Report) Count(code string) int {
	n := 0
	for _, v := range r.Violations {
		if v.Code == code {
			n++
		}
	}
	return n
}

// ForExercise returns the violations naming the given exercise id.
func (r *Report) ForExercise(id string) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.ExerciseID == id {
			out = append(out, v)
		}
	}
	return out
}

// Summary is a one-line count of errors and warnings.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d subjects, %d exercises: %d errors, %d warnings",
		r.Subjects, r.Exercises, len(r.Errors()), len(r.Warnings()))
}

// Err returns nil for a valid report, otherwise an *InvalidError.
func (r *Report) Err() error {
	if r.Valid() {
		return nil
	}
	return &InvalidError{Report: r}
}

// InvalidError carries a report that has error-level violations.
type InvalidError struct {
	Report *Report
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidCorpus, e.Report.Summary())
}

func (e *InvalidError) Unwrap() error { return ErrInvalidCorpus }
