package curriculum

import (
	"fmt"

	"github.com/callumalpass/study-program/internal/domain"
)

// Corpus is every subject of the curriculum in declared order.
type Corpus struct {
	subjects []*Subject
	byID     map[string]int
}

// NewCorpus builds a corpus. Subject ids must be unique.
func NewCorpus(subjects ...*Subject) (*Corpus, error) {
	c := &Corpus{byID: make(map[string]int, len(subjects))}
	for _, s := range subjects {
		if s == nil {
			return nil, fmt.Errorf("subject %d: %w", len(c.subjects)+1, ErrMissingCollection)
		}
		if _, dup := c.byID[s.ID()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSubject, s.ID())
		}
		c.byID[s.ID()] = len(c.subjects)
		c.subjects = append(c.subjects, s)
	}
	return c, nil
}

// Subjects returns the subjects in declared order.
func (c *Corpus) Subjects() []*Subject {
	out := make([]*Subject, len(c.subjects))
	copy(out, c.subjects)
	return out
}

// Subject returns the subject with the given id.
func (c *Corpus) Subject(id string) (*Subject, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubjectNotFound, id)
	}
	return c.subjects[i], nil
}

// Exercises concatenates every subject in order.
func (c *Corpus) Exercises() []domain.Exercise {
	var n int
	for _, s := range c.subjects {
		n += s.Len()
	}
	out := make([]domain.Exercise, 0, n)
	for _, s := range c.subjects {
		out = append(out, s.all...)
	}
	return out
}

// Len is the number of exercises in the corpus.
func (c *Corpus) Len() int {
	var n int
	for _, s := range c.subjects {
		n += s.Len()
	}
	return n
}

// Index maps exercise id to exercise. When ids collide the first
// occurrence wins; the validation pass reports the collision.
func (c *Corpus) Index() map[string]domain.Exercise {
	idx := make(map[string]domain.Exercise, c.Len())
	for _, s := range c.subjects {
		for _, ex := range s.all {
			if _, ok := idx[ex.ID]; !ok {
				idx[ex.ID] = ex
			}
		}
	}
	return idx
}
