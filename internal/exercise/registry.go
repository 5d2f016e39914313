package exercise

import (
	"fmt"
	"sync"

	"github.com/callumalpass/study-program/internal/curriculum"
	"github.com/callumalpass/study-program/internal/domain"
	"github.com/callumalpass/study-program/internal/schema"
)

// Registry provides access to subjects and exercises
type Registry struct {
	loader     *Loader
	mu         sync.RWMutex
	corpus     *curriculum.Corpus
	rejections []schema.Rejection
	exercises  map[string]domain.Exercise
	loaded     bool
}

// NewRegistry creates a new exercise registry
func NewRegistry(loader *Loader) *Registry {
	empty, _ := curriculum.NewCorpus()
	return &Registry{
		loader:    loader,
		corpus:    empty,
		exercises: make(map[string]domain.Exercise),
	}
}

// Load loads all subjects and exercises into memory. The content is read
// without holding the lock and swapped in only when it loaded cleanly, so a
// failed load keeps whatever was there before.
func (r *Registry) Load() error {
	result, err := r.loader.LoadAll()
	if err != nil {
		return fmt.Errorf("load subjects: %w", err)
	}
	index := result.Corpus.Index()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.corpus = result.Corpus
	r.rejections = result.Rejections
	r.exercises = index
	r.loaded = true
	return nil
}

// Reload re-reads the content (useful for development)
func (r *Registry) Reload() error {
	return r.Load()
}

// Loaded reports whether Load has completed
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Corpus returns the loaded corpus
func (r *Registry) Corpus() *curriculum.Corpus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.corpus
}

// Rejections returns the records that failed the schema on the last load
func (r *Registry) Rejections() []schema.Rejection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]schema.Rejection, len(r.rejections))
	copy(out, r.rejections)
	return out
}

// GetExercise returns an exercise by ID
func (r *Registry) GetExercise(id string) (domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exercise, ok := r.exercises[id]
	if !ok {
		return domain.Exercise{}, fmt.Errorf("%w: %s", domain.ErrExerciseNotFound, id)
	}
	return exercise, nil
}

// ListSubjects returns all subjects in declared order
func (r *Registry) ListSubjects() []curriculum.SubjectMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subjects := r.corpus.Subjects()
	metas := make([]curriculum.SubjectMeta, len(subjects))
	for i, s := range subjects {
		metas[i] = s.Meta()
	}
	return metas
}

// ListExercises returns every exercise in presentation order
func (r *Registry) ListExercises() []domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.corpus.Exercises()
}

// ListSubjectExercises returns all exercises for a subject
func (r *Registry) ListSubjectExercises(subjectID string) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subject, err := r.corpus.Subject(subjectID)
	if err != nil {
		return nil, err
	}
	return subject.Exercises(), nil
}

// ListTopicExercises returns the collection of one topic
func (r *Registry) ListTopicExercises(subjectID, topicID string) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subject, err := r.corpus.Subject(subjectID)
	if err != nil {
		return nil, err
	}
	topic, ok := subject.Topic(topicID)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrTopicNotFound, subjectID, topicID)
	}
	return topic.Items(), nil
}

// GetExercisesByDifficulty returns exercises filtered by difficulty
func (r *Registry) GetExercisesByDifficulty(difficulty domain.Difficulty) []domain.Exercise {
	return r.filter(func(ex domain.Exercise) bool { return ex.Difficulty == difficulty })
}

// GetExercisesByKind returns exercises of one variant
func (r *Registry) GetExercisesByKind(kind domain.Kind) []domain.Exercise {
	return r.filter(func(ex domain.Exercise) bool { return ex.Kind() == kind })
}

func (r *Registry) filter(keep func(domain.Exercise) bool) []domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exercises []domain.Exercise
	for _, ex := range r.corpus.Exercises() {
		if keep(ex) {
			exercises = append(exercises, ex)
		}
	}
	return exercises
}

// GetNextExercise returns the exercise that follows currentExerciseID in its
// subject's presentation order.
// Returns nil if there is no next exercise (current is the last one)
func (r *Registry) GetNextExercise(currentExerciseID string) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, subject := range r.corpus.Subjects() {
		exercises := subject.Exercises()
		for i, ex := range exercises {
			if ex.ID != currentExerciseID {
				continue
			}
			if i+1 < len(exercises) {
				next := exercises[i+1]
				return &next, nil
			}
			return nil, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrExerciseNotFound, currentExerciseID)
}

// Stats returns statistics about loaded exercises
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		SubjectCount:  len(r.corpus.Subjects()),
		ExerciseCount: r.corpus.Len(),
		RejectedCount: len(r.rejections),
		ByDifficulty:  make(map[domain.Difficulty]int),
		ByKind:        make(map[domain.Kind]int),
		ByLanguage:    make(map[domain.Language]int),
	}

	for _, subject := range r.corpus.Subjects() {
		stats.TopicCount += len(subject.TopicIDs())
	}

	for _, ex := range r.corpus.Exercises() {
		stats.ByDifficulty[ex.Difficulty]++
		stats.ByKind[ex.Kind()]++
		if c, ok := ex.Coding(); ok {
			stats.ByLanguage[c.Language]++
		}
	}

	return stats
}

// RegistryStats holds statistics about the registry
type RegistryStats struct {
	SubjectCount  int
	TopicCount    int
	ExerciseCount int
	RejectedCount int
	ByDifficulty  map[domain.Difficulty]int
	ByKind        map[domain.Kind]int
	ByLanguage    map[domain.Language]int
}
