package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/callumalpass/study-program/internal/storage/sqlite"
)

// cmdHistory lists past publications from a SQLite catalog
func cmdHistory(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("history", &g)
	dbPath := fs.String("db", "", "SQLite catalog (default publish.sqlite_path)")
	limit := fs.Int("limit", 10, "number of publications to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(g, out)
	if err != nil {
		return err
	}
	path := *dbPath
	if path == "" {
		path = a.cfg.Publish.SQLitePath
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("catalog database: %w", err)
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	pubs, err := sqlite.NewCatalogStore(db).Publications(ctx, *limit)
	if err != nil {
		return err
	}
	if len(pubs) == 0 {
		fmt.Fprintln(out, "No publications yet.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPUBLISHED\tDIGEST\tSUBJECTS\tEXERCISES\tWARNINGS")
	for _, p := range pubs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\n",
			p.ID, p.PublishedAt.Local().Format(time.DateTime), shortDigest(p.Digest), p.Subjects, p.ExerciseCount, len(p.Warnings))
	}
	return tw.Flush()
}
