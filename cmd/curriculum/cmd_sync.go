package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/callumalpass/study-program/internal/gitsource"
)

// cmdSync clones or pulls the configured content repository
func cmdSync(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("sync", &g)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(g, out)
	if err != nil {
		return err
	}
	if a.cfg.Content.Repo == "" {
		return errors.New("content.repo is not configured")
	}

	revision, err := gitsource.Source{
		URL:    a.cfg.Content.Repo,
		Path:   a.cfg.Content.CacheDir,
		Branch: a.cfg.Content.Branch,
		Logger: a.logger,
	}.Sync(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s at %s\n", a.cfg.Content.CacheDir, revision)
	return nil
}
