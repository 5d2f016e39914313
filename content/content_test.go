package content_test

import (
	"testing"

	"github.com/callumalpass/study-program/content"
	"github.com/callumalpass/study-program/internal/domain"
	"github.com/callumalpass/study-program/internal/exercise"
	"github.com/callumalpass/study-program/internal/validate"
)

// The built-in curriculum must pass the strict validation pass; this test is
// what blocks a broken edit from being published.
func TestBuiltinCurriculumIsValid(t *testing.T) {
	result, err := exercise.NewLoader(content.FS()).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	for _, rej := range result.Rejections {
		t.Errorf("rejected %s: %v", rej.Location, rej.Err)
	}

	report := validate.NewValidator(validate.Options{Strict: true}).Validate(result.Corpus, result.Rejections...)
	for _, v := range report.Violations {
		t.Errorf("%s", v)
	}
}

func TestBuiltinCurriculumShape(t *testing.T) {
	result, err := exercise.NewLoader(content.FS()).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	subjects := result.Corpus.Subjects()
	if len(subjects) != 2 {
		t.Fatalf("len(subjects) = %d, want 2", len(subjects))
	}
	if subjects[0].ID() != "cs101" || subjects[1].ID() != "math102" {
		t.Errorf("subject order = %s, %s", subjects[0].ID(), subjects[1].ID())
	}

	for _, s := range subjects {
		if len(s.TopicIDs()) == 0 {
			t.Errorf("subject %s has no topics", s.ID())
		}
		var written, coding int
		for _, ex := range s.Exercises() {
			switch ex.Kind() {
			case domain.KindWritten:
				written++
			case domain.KindCoding:
				coding++
			}
		}
		if written == 0 || coding == 0 {
			t.Errorf("subject %s: written=%d coding=%d, want both variants", s.ID(), written, coding)
		}
	}
}
