// Package curriculum composes topic collections into subjects and subjects
// into a corpus. Composition is ordered concatenation: nothing is sorted,
// filtered or deduplicated.
package curriculum

import (
	"errors"
	"fmt"
	"slices"

	"github.com/callumalpass/study-program/internal/domain"
)

// Wiring errors
var (
	ErrMissingCollection = errors.New("topic collection is undefined")
	ErrDuplicateTopic    = errors.New("topic declared twice")
	ErrDuplicateSubject  = errors.New("subject declared twice")
)

// Collection is the ordered exercise list of one topic.
type Collection struct {
	SubjectID string
	TopicID   string
	Title     string
	Origin    string // where the collection was authored, e.g. "cs101/topics/loops.yaml"
	Exercises []domain.Exercise
}

// Items returns a copy of the collection's exercises in presentation order.
func (c Collection) Items() []domain.Exercise {
	return slices.Clone(c.Exercises)
}

// Location names the i-th element of the collection for reports.
func (c Collection) Location(i int) string {
	origin := c.Origin
	if origin == "" {
		origin = c.SubjectID + "/" + c.TopicID
	}
	return fmt.Sprintf("%s#%d", origin, i)
}

// SubjectMeta is the descriptive part of a subject.
type SubjectMeta struct {
	ID          string
	Title       string
	Description string
}

// Subject is the aggregate of its topic collections in declared order.
type Subject struct {
	meta    SubjectMeta
	topics  []Collection
	byTopic map[string]int
	all     []domain.Exercise
}

// Compose concatenates topics in the order given. Collections are copied, so
// later changes to the caller's slices do not leak into the subject.
func Compose(meta SubjectMeta, topics ...Collection) (*Subject, error) {
	s := &Subject{
		meta:    meta,
		topics:  make([]Collection, 0, len(topics)),
		byTopic: make(map[string]int, len(topics)),
	}

	total := 0
	for i, t := range topics {
		if t.TopicID == "" {
			return nil, fmt.Errorf("subject %s topic %d: %w", meta.ID, i+1, ErrMissingCollection)
		}
		if _, dup := s.byTopic[t.TopicID]; dup {
			return nil, fmt.Errorf("subject %s: %w: %s", meta.ID, ErrDuplicateTopic, t.TopicID)
		}
		t.Exercises = slices.Clone(t.Exercises)
		s.byTopic[t.TopicID] = len(s.topics)
		s.topics = append(s.topics, t)
		total += len(t.Exercises)
	}

	s.all = make([]domain.Exercise, 0, total)
	for _, t := range s.topics {
		s.all = append(s.all, t.Exercises...)
	}

	return s, nil
}

// MustCompose is Compose for content declared in Go source.
func MustCompose(meta SubjectMeta, topics ...Collection) *Subject {
	s, err := Compose(meta, topics...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Subject) ID() string        { return s.meta.ID }
func (s *Subject) Title() string     { return s.meta.Title }
func (s *Subject) Meta() SubjectMeta { return s.meta }
func (s *Subject) Len() int          { return len(s.all) }

// Exercises returns the concatenated sequence.
func (s *Subject) Exercises() []domain.Exercise {
	return slices.Clone(s.all)
}

// Topics returns every collection in declared order.
func (s *Subject) Topics() []Collection {
	out := make([]Collection, len(s.topics))
	for i, t := range s.topics {
		t.Exercises = slices.Clone(t.Exercises)
		out[i] = t
	}
	return out
}

// TopicIDs returns the declared topic order.
func (s *Subject) TopicIDs() []string {
	ids := make([]string, len(s.topics))
	for i, t := range s.topics {
		ids[i] = t.TopicID
	}
	return ids
}

// Topic returns the collection declared under id.
func (s *Subject) Topic(id string) (Collection, bool) {
	i, ok := s.byTopic[id]
	if !ok {
		return Collection{}, false
	}
	t := s.topics[i]
	t.Exercises = slices.Clone(t.Exercises)
	return t, true
}

// HasTopic reports whether id is declared in the subject.
func (s *Subject) HasTopic(id string) bool {
	_, ok := s.byTopic[id]
	return ok
}

// SplitByTopic re-derives per-topic sequences from a concatenation by
// filtering on topic id, in the given topic order.
func SplitByTopic(exercises []domain.Exercise, topicIDs []string) map[string][]domain.Exercise {
	out := make(map[string][]domain.Exercise, len(topicIDs))
	for _, id := range topicIDs {
		out[id] = []domain.Exercise{}
	}
	for _, ex := range exercises {
		if _, ok := out[ex.TopicID]; ok {
			out[ex.TopicID] = append(out[ex.TopicID], ex)
		}
	}
	return out
}
