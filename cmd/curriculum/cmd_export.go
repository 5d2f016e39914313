package main

import (
	"context"
	"io"

	"github.com/callumalpass/study-program/internal/publish"
)

// cmdExport writes a validated catalog to a single SQLite file, and
// optionally a JSON snapshot directory.
func cmdExport(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("export", &g)
	outPath := fs.String("out", "catalog.db", "SQLite file to write")
	jsonDir := fs.String("json-dir", "", "also write JSON snapshots to this directory")
	strict := fs.Bool("strict", false, "block on exercises without visible test cases")
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

	set := &sinkSet{}
	defer set.Close()

	sqliteSink, closer, err := openSQLiteSink(ctx, *outPath)
	if err != nil {
		return err
	}
	set.add(sqliteSink, closer)

	if *jsonDir != "" {
		localSink, err := openLocalSink(*jsonDir)
		if err != nil {
			return err
		}
		set.add(localSink, nil)
	}

	svc := publish.NewService(set.sinks, publish.Options{
		Strict: *strict || a.cfg.Validation.Strict,
		Retry:  retryConfig(a.cfg.Publish.MaxAttempts),
		Logger: a.logger,
	})
	return reportPublication(ctx, svc, registry, out)
}
