package main

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// cmdInfo shows one exercise
func cmdInfo(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("info", &g)
	showSolution := fs.Bool("solution", false, "include the solution")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("exercise ID required (e.g., cs101-variables-1)")
	}
	id := fs.Arg(0)

	a, err := newApp(g, out)
	if err != nil {
		return err
	}
	registry, err := a.registry(ctx)
	if err != nil {
		return err
	}

	ex, err := registry.GetExercise(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Exercise: %s\n\n", ex.Title)
	fmt.Fprintf(out, "ID:         %s\n", ex.ID)
	fmt.Fprintf(out, "Subject:    %s / %s\n", ex.SubjectID, ex.TopicID)
	fmt.Fprintf(out, "Kind:       %s\n", ex.Kind())
	fmt.Fprintf(out, "Difficulty: %d\n", ex.Difficulty)

	if coding, ok := ex.Coding(); ok {
		fmt.Fprintf(out, "Language:   %s\n", coding.Language)
		fmt.Fprintf(out, "Tests:      %d (%d visible)\n", len(coding.TestCases), len(coding.VisibleTestCases()))
	}

	fmt.Fprintf(out, "\nDescription:\n%s\n", strings.TrimSpace(ex.Description))

	if len(ex.Hints) > 0 {
		fmt.Fprintln(out, "\nHints:")
		for i, h := range ex.Hints {
			fmt.Fprintf(out, "  %d. %s\n", i+1, h)
		}
	}

	if coding, ok := ex.Coding(); ok && coding.StarterCode != "" {
		fmt.Fprintf(out, "\nStarter code:\n%s\n", strings.TrimRight(coding.StarterCode, "\n"))
	}

	if *showSolution {
		if w, ok := ex.Written(); ok {
			fmt.Fprintf(out, "\nSolution:\n%s\n", strings.TrimSpace(w.Solution))
		}
		if c, ok := ex.Coding(); ok {
			fmt.Fprintf(out, "\nSolution:\n%s\n", strings.TrimRight(c.SolutionCode, "\n"))
		}
	}

	next, err := registry.GetNextExercise(id)
	if err != nil {
		return err
	}
	if next != nil {
		fmt.Fprintf(out, "\nNext: %s (%s)\n", next.ID, next.Title)
	}
	return nil
}
