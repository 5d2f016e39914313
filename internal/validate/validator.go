// Package validate runs the corpus-wide validation pass: id uniqueness,
// referential integrity, difficulty bounds and coding exercise completeness.
// Every violation is collected so an author can fix all of them at once.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/callumalpass/study-program/internal/curriculum"
	"github.com/callumalpass/study-program/internal/digest"
	"github.com/callumalpass/study-program/internal/domain"
	"github.com/callumalpass/study-program/internal/schema"
)

// Options tune the validation pass.
type Options struct {
	// Strict turns "all test cases hidden" from a warning into an error.
	Strict bool
}

// Validator checks a corpus against the content invariants.
type Validator struct {
	opts Options
	now  func() time.Time
}

// NewValidator creates a new validator
func NewValidator(opts Options) *Validator {
	return &Validator{opts: opts, now: time.Now}
}

// Validate checks the corpus and any records that were rejected while
// loading it. The traversal order, and therefore the report, is
// deterministic.
func (v *Validator) Validate(corpus *curriculum.Corpus, rejected ...schema.Rejection) *Report {
	report := &Report{
		RunID:      uuid.New(),
		CheckedAt:  v.now(),
		Strict:     v.opts.Strict,
		Violations: []Violation{},
	}

	seen := newIDTracker()

	for _, rej := range rejected {
		v.checkRejection(report, rej)
		if rej.ID != "" {
			seen.add(rej.ID, rej.Location)
		}
	}

	if corpus != nil {
		for _, subject := range corpus.Subjects() {
			report.Subjects++
			for _, topic := range subject.Topics() {
				for i, ex := range topic.Exercises {
					report.Exercises++
					loc := topic.Location(i)
					if ex.ID == "" {
						report.add(Violation{
							Code:      CodeMissingID,
							Severity:  SeverityError,
							Locations: []string{loc},
							Message:   "exercise has no id",
						})
					} else {
						seen.add(ex.ID, loc)
					}
					v.checkReferences(report, subject, topic, ex, loc)
					v.checkExercise(report, ex, loc)
				}
			}
		}
	}

	for _, id := range seen.order {
		locs := seen.locations[id]
		if len(locs) < 2 {
			continue
		}
		report.add(Violation{
			Code:       CodeDuplicateID,
			Severity:   SeverityError,
			ExerciseID: id,
			Locations:  locs,
			Message:    fmt.Sprintf("id %q is declared %d times", id, len(locs)),
		})
	}

	return report
}

func (v *Validator) checkRejection(report *Report, rej schema.Rejection) {
	if rej.Err == nil {
		return
	}
	for _, f := range rej.Err.Fields {
		code := CodeSchema
		if f.Code == schema.CodeDifficultyRange {
			code = CodeDifficultyRange
		}
		report.add(Violation{
			Code:       code,
			Severity:   SeverityError,
			ExerciseID: rej.ID,
			Locations:  []string{rej.Location},
			Message:    f.Message,
		})
	}
}

func (v *Validator) checkReferences(report *Report, subject *curriculum.Subject, topic curriculum.Collection, ex domain.Exercise, loc string) {
	if ex.SubjectID != subject.ID() {
		report.add(Violation{
			Code:       CodeSubjectMismatch,
			Severity:   SeverityError,
			ExerciseID: ex.ID,
			Locations:  []string{loc},
			Message:    fmt.Sprintf("subject %q does not match enclosing subject %q", ex.SubjectID, subject.ID()),
		})
	}

	switch {
	case !subject.HasTopic(ex.TopicID):
		report.add(Violation{
			Code:       CodeUnknownTopic,
			Severity:   SeverityError,
			ExerciseID: ex.ID,
			Locations:  []string{loc},
			Message: fmt.Sprintf("topic %q is not declared in subject %q (declared: %s)",
				ex.TopicID, subject.ID(), strings.Join(subject.TopicIDs(), ", ")),
		})
	case ex.TopicID != topic.TopicID:
		report.add(Violation{
			Code:       CodeTopicMismatch,
			Severity:   SeverityError,
			ExerciseID: ex.ID,
			Locations:  []string{loc},
			Message:    fmt.Sprintf("exercise tagged with topic %q is declared in collection %q", ex.TopicID, topic.TopicID),
		})
	}
}

func (v *Validator) checkExercise(report *Report, ex domain.Exercise, loc string) {
	at := func(code string, sev Severity, format string, args ...any) {
		report.add(Violation{
			Code:       code,
			Severity:   sev,
			ExerciseID: ex.ID,
			Locations:  []string{loc},
			Message:    fmt.Sprintf(format, args...),
		})
	}

	if !ex.Difficulty.Valid() {
		at(CodeDifficultyRange, SeverityError, "difficulty %d out of range [%d,%d]",
			ex.Difficulty, domain.MinDifficulty, domain.MaxDifficulty)
	}
	if strings.TrimSpace(ex.Title) == "" {
		at(CodeEmptyField, SeverityWarning, "title is empty")
	}
	if strings.TrimSpace(ex.Description) == "" {
		at(CodeEmptyField, SeverityWarning, "description is empty")
	}

	switch body := ex.Body.(type) {
	case domain.Written:
		if strings.TrimSpace(body.Solution) == "" {
			at(CodeEmptyField, SeverityWarning, "solution is empty")
		}
	case domain.Coding:
		switch {
		case body.Language == "":
			at(CodeMissingLanguage, SeverityError, "coding exercise has no language")
		case !body.Language.IsValid():
			at(CodeInvalidLanguage, SeverityError, "unsupported language %q", body.Language)
		}
		if strings.TrimSpace(body.SolutionCode) == "" {
			at(CodeEmptyField, SeverityWarning, "solution code is empty")
		}
		switch {
		case len(body.TestCases) == 0:
			at(CodeNoTestCases, SeverityError, "coding exercise has no test cases")
		case len(body.VisibleTestCases()) == 0:
			sev := SeverityWarning
			if v.opts.Strict {
				sev = SeverityError
			}
			at(CodeNoVisibleTestCase, sev, "all %d test cases are hidden", len(body.TestCases))
		}
		// Published catalogs carry test cases as JSON.
		if _, err := digest.Exercise(ex); err != nil {
			at(CodeInvalidTestCase, SeverityError, "test case values cannot be stored: %v", err)
		}
	default:
		at(CodeMissingKind, SeverityError, "exercise has no variant")
	}
}

func (r *Report) add(v Violation) {
	r.Violations = append(r.Violations, v)
}

type idTracker struct {
	order     []string
	locations map[string][]string
}

func newIDTracker() *idTracker {
	return &idTracker{locations: make(map[string][]string)}
}

func (t *idTracker) add(id, loc string) {
	if _, ok := t.locations[id]; !ok {
		t.order = append(t.order, id)
	}
	t.locations[id] = append(t.locations[id], loc)
}
