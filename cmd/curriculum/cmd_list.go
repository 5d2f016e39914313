package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/callumalpass/study-program/internal/domain"
)

// cmdList prints exercises in presentation order, optionally filtered
func cmdList(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("list", &g)
	subject := fs.String("subject", "", "only exercises of this subject")
	topic := fs.String("topic", "", "only exercises of this topic (requires --subject)")
	difficulty := fs.Int("difficulty", 0, "only exercises of this difficulty (1-5)")
	kind := fs.String("kind", "", "only written or coding exercises")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *topic != "" && *subject == "" {
		return fmt.Errorf("--topic requires --subject")
	}
	var wantKind domain.Kind
	if *kind != "" {
		k, err := domain.ParseKind(*kind)
		if err != nil {
			return err
		}
		wantKind = k
	}
	if *difficulty != 0 && !domain.Difficulty(*difficulty).Valid() {
		return fmt.Errorf("--difficulty must be between %d and %d", domain.MinDifficulty, domain.MaxDifficulty)
	}

	a, err := newApp(g, out)
	if err != nil {
		return err
	}
	registry, err := a.registry(ctx)
	if err != nil {
		return err
	}

	var exercises []domain.Exercise
	switch {
	case *topic != "":
		exercises, err = registry.ListTopicExercises(*subject, *topic)
	case *subject != "":
		exercises, err = registry.ListSubjectExercises(*subject)
	default:
		exercises = registry.ListExercises()
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBJECT\tTOPIC\tKIND\tDIFFICULTY\tTITLE")
	shown := 0
	for _, ex := range exercises {
		if wantKind != "" && ex.Kind() != wantKind {
			continue
		}
		if *difficulty != 0 && ex.Difficulty != domain.Difficulty(*difficulty) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", ex.ID, ex.SubjectID, ex.TopicID, ex.Kind(), ex.Difficulty, ex.Title)
		shown++
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d exercises\n", shown)
	return nil
}
