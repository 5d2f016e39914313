package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/callumalpass/study-program/content"
	"github.com/callumalpass/study-program/internal/config"
	"github.com/callumalpass/study-program/internal/exercise"
	"github.com/callumalpass/study-program/internal/gitsource"
)

// globalFlags are accepted by every subcommand.
type globalFlags struct {
	configPath string
	contentDir string
	logLevel   string
}

func newFlagSet(name string, g *globalFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVar(&g.configPath, "config", "", "config file (default "+config.DefaultPath+" if present)")
	fs.StringVar(&g.contentDir, "content", "", "content directory (default: built-in content)")
	fs.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	return fs
}

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

func newApp(g globalFlags, out io.Writer) (*app, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.contentDir != "" {
		cfg.Content.Dir = g.contentDir
		cfg.Content.Repo = ""
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}

	return &app{
		cfg:    cfg,
		logger: setupLogging(cfg.Log, os.Stderr),
		out:    out,
	}, nil
}

// loader picks the content source: a synced repository, a directory, or
// the content built into the binary.
func (a *app) loader(ctx context.Context) (*exercise.Loader, error) {
	switch {
	case a.cfg.Content.Repo != "":
		src := gitsource.Source{
			URL:    a.cfg.Content.Repo,
			Path:   a.cfg.Content.CacheDir,
			Branch: a.cfg.Content.Branch,
			Logger: a.logger,
		}
		if _, err := src.Sync(ctx); err != nil {
			return nil, fmt.Errorf("sync content: %w", err)
		}
		return exercise.NewDirLoader(a.cfg.Content.CacheDir), nil
	case a.cfg.Content.Dir != "":
		if _, err := os.Stat(a.cfg.Content.Dir); err != nil {
			return nil, fmt.Errorf("content directory: %w", err)
		}
		return exercise.NewDirLoader(a.cfg.Content.Dir), nil
	default:
		return exercise.NewLoader(content.FS()), nil
	}
}

func (a *app) registry(ctx context.Context) (*exercise.Registry, error) {
	loader, err := a.loader(ctx)
	if err != nil {
		return nil, err
	}
	registry := exercise.NewRegistry(loader)
	if err := registry.Load(); err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	a.logger.Debug("content loaded",
		"root", loader.Root(),
		"exercises", registry.Stats().ExerciseCount,
		"rejected", len(registry.Rejections()),
	)
	return registry, nil
}
