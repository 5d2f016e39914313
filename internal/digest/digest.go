// Package digest computes stable content hashes for exercises and corpora.
package digest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/callumalpass/study-program/internal/curriculum"
	"github.com/callumalpass/study-program/internal/domain"
)

// Normalize renders the exercise as one string. Each text field has its
// surrounding whitespace trimmed and line endings normalized; case is kept
// because code is case-sensitive. It fails when a test case value has no
// stable encoding.
func Normalize(e domain.Exercise) (string, error) {
	part := func(s string) string {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		return strings.TrimSpace(s)
	}

	fields := []string{
		part(e.ID),
		part(e.SubjectID),
		part(e.TopicID),
		string(e.Kind()),
		part(e.Title),
		part(e.Description),
		strconv.Itoa(int(e.Difficulty)),
	}
	for _, h := range e.Hints {
		fields = append(fields, "hint:"+part(h))
	}

	switch body := e.Body.(type) {
	case domain.Written:
		fields = append(fields, part(body.Solution))
	case domain.Coding:
		fields = append(fields,
			string(body.Language),
			part(body.StarterCode),
			part(body.SolutionCode),
		)
		for i, tc := range body.TestCases {
			s, err := testCase(tc)
			if err != nil {
				return "", fmt.Errorf("exercise %s test case %d: %w", e.ID, i, err)
			}
			fields = append(fields, "case:"+s)
		}
	}

	// Fields are separated by a control character so that adjacent values
	// cannot run together.
	return strings.Join(fields, "\x1e"), nil
}

func testCase(tc domain.TestCase) (string, error) {
	// encoding/json sorts map keys, which keeps nested expected values stable.
	args, err := json.Marshal(tc.Args)
	if err != nil {
		return "", fmt.Errorf("encode args: %w", err)
	}
	expected, err := json.Marshal(tc.Expected)
	if err != nil {
		return "", fmt.Errorf("encode expected: %w", err)
	}
	return fmt.Sprintf("%s=>%s hidden=%t %s", args, expected, tc.Hidden, strings.TrimSpace(tc.Description)), nil
}

// Exercise returns the hex SHA-256 of the normalized exercise.
func Exercise(e domain.Exercise) (string, error) {
	norm, err := Normalize(e)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(norm))
	return fmt.Sprintf("%x", sum), nil
}

// Subject digests a subject from its topic order and exercise digests.
func Subject(s *curriculum.Subject) (string, error) {
	h := sha256.New()
	fmt.Fprintf(h, "subject:%s\n", s.ID())
	for _, topic := range s.Topics() {
		fmt.Fprintf(h, "topic:%s\n", topic.TopicID)
		for _, e := range topic.Exercises {
			d, err := Exercise(e)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(h, "%s\n", d)
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Corpus digests every subject in order. Reordering, adding or editing any
// exercise changes the result.
func Corpus(c *curriculum.Corpus) (string, error) {
	h := sha256.New()
	for _, s := range c.Subjects() {
		d, err := Subject(s)
		if err != nil {
			return "", fmt.Errorf("subject %s: %w", s.ID(), err)
		}
		fmt.Fprintf(h, "%s\n", d)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
