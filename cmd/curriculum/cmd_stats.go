package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/callumalpass/study-program/internal/domain"
)

// cmdStats prints corpus statistics
func cmdStats(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("stats", &g)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(g, out)
	if err != nil {
		return err
	}
	registry, err := a.registry(ctx)
	if err != nil {
		return err
	}

	stats := registry.Stats()

	fmt.Fprintln(out, "Corpus Statistics")
	fmt.Fprintln(out, "=================")
	fmt.Fprintf(out, "Subjects:  %d\n", stats.SubjectCount)
	fmt.Fprintf(out, "Topics:    %d\n", stats.TopicCount)
	fmt.Fprintf(out, "Exercises: %d\n", stats.ExerciseCount)
	if stats.RejectedCount > 0 {
		fmt.Fprintf(out, "Rejected:  %d (run 'curriculum validate' for details)\n", stats.RejectedCount)
	}

	fmt.Fprintln(out, "\nBy kind:")
	for _, k := range []domain.Kind{domain.KindWritten, domain.KindCoding} {
		fmt.Fprintf(out, "  %-8s %d\n", k, stats.ByKind[k])
	}

	fmt.Fprintln(out, "\nBy difficulty:")
	for d := domain.MinDifficulty; d <= domain.MaxDifficulty; d++ {
		n := stats.ByDifficulty[d]
		fmt.Fprintf(out, "  %d %s %d\n", d, renderBar(n, stats.ExerciseCount, 20), n)
	}

	if len(stats.ByLanguage) > 0 {
		fmt.Fprintln(out, "\nBy language:")
		for _, l := range domain.Languages {
			if n := stats.ByLanguage[l]; n > 0 {
				fmt.Fprintf(out, "  %-11s %d\n", l, n)
			}
		}
	}
	return nil
}

// renderBar creates a visual proportion bar
func renderBar(n, total, width int) string {
	filled := 0
	if total > 0 {
		filled = n * width / total
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
