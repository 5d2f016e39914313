package exercise_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/callumalpass/study-program/internal/domain"
	"github.com/callumalpass/study-program/internal/exercise"
)

func setupRegistry(t *testing.T) *exercise.Registry {
	t.Helper()

	loader := exercise.NewDirLoader("../../content")
	registry := exercise.NewRegistry(loader)

	if err := registry.Load(); err != nil {
		t.Fatalf("Failed to load exercises: %v", err)
	}

	return registry
}

func TestRegistry_Load(t *testing.T) {
	registry := setupRegistry(t)

	if !registry.Loaded() {
		t.Error("Loaded() = false after Load")
	}

	stats := registry.Stats()
	if stats.SubjectCount != 2 {
		t.Errorf("SubjectCount = %d, want 2", stats.SubjectCount)
	}
	if stats.ExerciseCount == 0 {
		t.Error("No exercises loaded")
	}
	if stats.RejectedCount != 0 {
		t.Errorf("RejectedCount = %d, want 0", stats.RejectedCount)
	}
}

func TestRegistry_Empty(t *testing.T) {
	registry := exercise.NewRegistry(exercise.NewDirLoader(t.TempDir()))

	if len(registry.ListSubjects()) != 0 {
		t.Error("unloaded registry should have no subjects")
	}
	if _, err := registry.GetExercise("anything"); !errors.Is(err, domain.ErrExerciseNotFound) {
		t.Errorf("GetExercise() error = %v, want ErrExerciseNotFound", err)
	}
	if err := registry.Load(); err != nil {
		t.Fatalf("Load() on empty directory error = %v", err)
	}
	if registry.Stats().ExerciseCount != 0 {
		t.Error("empty directory should load no exercises")
	}
}

func TestRegistry_ListSubjects(t *testing.T) {
	registry := setupRegistry(t)

	subjects := registry.ListSubjects()
	if len(subjects) != 2 {
		t.Fatalf("len(ListSubjects()) = %d, want 2", len(subjects))
	}
	if subjects[0].ID != "cs101" {
		t.Errorf("subjects[0].ID = %q, want cs101", subjects[0].ID)
	}
	for _, s := range subjects {
		if s.Title == "" {
			t.Errorf("subject %s has no title", s.ID)
		}
	}
}

func TestRegistry_ListSubjectExercises(t *testing.T) {
	registry := setupRegistry(t)

	exercises, err := registry.ListSubjectExercises("cs101")
	if err != nil {
		t.Fatalf("ListSubjectExercises failed: %v", err)
	}
	if len(exercises) == 0 {
		t.Fatal("No exercises found in cs101")
	}
	if exercises[0].ID != "cs101-variables-1" {
		t.Errorf("first exercise = %q, want cs101-variables-1", exercises[0].ID)
	}
	for _, ex := range exercises {
		if ex.SubjectID != "cs101" {
			t.Errorf("exercise %s has subject %q", ex.ID, ex.SubjectID)
		}
	}

	if _, err := registry.ListSubjectExercises("nonexistent"); !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Errorf("error = %v, want ErrSubjectNotFound", err)
	}
}

func TestRegistry_ListTopicExercises(t *testing.T) {
	registry := setupRegistry(t)

	exercises, err := registry.ListTopicExercises("math102", "logic")
	if err != nil {
		t.Fatalf("ListTopicExercises failed: %v", err)
	}
	for _, ex := range exercises {
		if ex.TopicID != "logic" {
			t.Errorf("exercise %s has topic %q", ex.ID, ex.TopicID)
		}
	}

	if _, err := registry.ListTopicExercises("math102", "ghost-topic"); !errors.Is(err, domain.ErrTopicNotFound) {
		t.Errorf("error = %v, want ErrTopicNotFound", err)
	}
}

func TestRegistry_GetExercise(t *testing.T) {
	registry := setupRegistry(t)

	ex, err := registry.GetExercise("cs101-functions-2")
	if err != nil {
		t.Fatalf("GetExercise failed: %v", err)
	}
	if ex.Kind() != domain.KindCoding {
		t.Errorf("Kind() = %q, want coding", ex.Kind())
	}
	coding, _ := ex.Coding()
	if len(coding.TestCases) == 0 {
		t.Error("coding exercise should have test cases")
	}

	if _, err := registry.GetExercise("nonexistent"); !errors.Is(err, domain.ErrExerciseNotFound) {
		t.Errorf("error = %v, want ErrExerciseNotFound", err)
	}
}

func TestRegistry_GetExercisesByDifficulty(t *testing.T) {
	registry := setupRegistry(t)

	for d := domain.MinDifficulty; d <= domain.MaxDifficulty; d++ {
		for _, ex := range registry.GetExercisesByDifficulty(d) {
			if ex.Difficulty != d {
				t.Errorf("exercise %s difficulty = %d, want %d", ex.ID, ex.Difficulty, d)
			}
		}
	}
	if len(registry.GetExercisesByDifficulty(1)) == 0 {
		t.Error("expected at least one difficulty-1 exercise")
	}
}

func TestRegistry_GetExercisesByKind(t *testing.T) {
	registry := setupRegistry(t)

	written := registry.GetExercisesByKind(domain.KindWritten)
	coding := registry.GetExercisesByKind(domain.KindCoding)

	if len(written) == 0 || len(coding) == 0 {
		t.Fatalf("written=%d coding=%d, want both", len(written), len(coding))
	}
	if len(written)+len(coding) != registry.Stats().ExerciseCount {
		t.Error("every exercise should be either written or coding")
	}
}

func TestRegistry_GetNextExercise(t *testing.T) {
	registry := setupRegistry(t)

	tests := []struct {
		name    string
		current string
		want    string
		wantErr bool
	}{
		{name: "within topic", current: "cs101-variables-1", want: "cs101-variables-2"},
		{name: "across topics", current: "cs101-variables-3", want: "cs101-control-flow-1"},
		{name: "last in subject", current: "cs101-collections-3", want: ""},
		{name: "unknown", current: "nonexistent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := registry.GetNextExercise(tt.current)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetNextExercise() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.want == "" {
				if next != nil {
					t.Errorf("GetNextExercise() = %s, want nil", next.ID)
				}
				return
			}
			if next == nil || next.ID != tt.want {
				t.Errorf("GetNextExercise() = %v, want %s", next, tt.want)
			}
		})
	}
}

func TestRegistry_Stats(t *testing.T) {
	registry := setupRegistry(t)

	stats := registry.Stats()
	if stats.TopicCount != 8 {
		t.Errorf("TopicCount = %d, want 8", stats.TopicCount)
	}

	var byDifficulty, byKind int
	for _, n := range stats.ByDifficulty {
		byDifficulty += n
	}
	for _, n := range stats.ByKind {
		byKind += n
	}
	if byDifficulty != stats.ExerciseCount || byKind != stats.ExerciseCount {
		t.Errorf("breakdowns (%d, %d) should sum to %d", byDifficulty, byKind, stats.ExerciseCount)
	}
	if stats.ByLanguage[domain.LanguagePython] == 0 {
		t.Error("expected python exercises")
	}
}

func TestRegistry_Reload(t *testing.T) {
	registry := setupRegistry(t)
	before := registry.Stats().ExerciseCount

	if err := registry.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if after := registry.Stats().ExerciseCount; after != before {
		t.Errorf("ExerciseCount after reload = %d, want %d", after, before)
	}
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	registry := setupRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = registry.ListSubjects()
			_, _ = registry.GetExercise("cs101-variables-1")
			_ = registry.Stats()
		}()
	}
	wg.Wait()
}

func TestRegistry_FailedReloadKeepsContent(t *testing.T) {
	dir := t.TempDir()
	subjectDir := filepath.Join(dir, "cs101")
	if err := os.MkdirAll(subjectDir, 0755); err != nil {
		t.Fatalf("failed to create subject dir: %v", err)
	}
	write := func(name, data string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(subjectDir, name), []byte(data), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	write("subject.yaml", "id: cs101\ntitle: Intro\ntopics:\n  - id: basics\n    file: basics.yaml\n")
	write("basics.yaml", `exercises:
  - id: cs101-basics-1
    subject_id: cs101
    topic_id: basics
    kind: written
    title: Variables
    description: What is a variable?
    difficulty: 1
    hints: []
    solution: A named storage location.
`)

	registry := exercise.NewRegistry(exercise.NewDirLoader(dir))
	if err := registry.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	write("subject.yaml", "topics: [oops")
	if err := registry.Reload(); err == nil {
		t.Fatal("Reload() should fail for a broken manifest")
	}

	if !registry.Loaded() {
		t.Error("Loaded() = false after a failed reload")
	}
	if got := registry.Stats().ExerciseCount; got != 1 {
		t.Errorf("ExerciseCount = %d, want 1", got)
	}
	if _, err := registry.GetExercise("cs101-basics-1"); err != nil {
		t.Errorf("GetExercise() after failed reload error = %v", err)
	}
}
