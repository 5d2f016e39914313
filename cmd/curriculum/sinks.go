package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/callumalpass/study-program/internal/config"
	"github.com/callumalpass/study-program/internal/publish"
	"github.com/callumalpass/study-program/internal/storage/local"
	"github.com/callumalpass/study-program/internal/storage/postgres"
	"github.com/callumalpass/study-program/internal/storage/sqlite"
)

// sinkSet is the set of opened sinks plus the cleanup for each.
type sinkSet struct {
	sinks   []publish.Sink
	closers []func()
}

func (s *sinkSet) add(sink publish.Sink, closer func()) {
	s.sinks = append(s.sinks, sink)
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
}

func (s *sinkSet) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openSQLiteSink(ctx context.Context, path string) (*sqlite.CatalogStore, func(), error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return sqlite.NewCatalogStore(db), func() { db.Close() }, nil
}

func openLocalSink(dir string) (*local.CatalogStore, error) {
	store, err := local.NewStore(dir)
	if err != nil {
		return nil, err
	}
	return local.NewCatalogStore(store), nil
}

// openSinks opens every sink enabled in cfg, in the order sqlite, postgres,
// local.
func openSinks(ctx context.Context, cfg config.PublishConfig) (*sinkSet, error) {
	set := &sinkSet{}

	if cfg.SQLitePath != "" {
		sink, closer, err := openSQLiteSink(ctx, cfg.SQLitePath)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.add(sink, closer)
	}

	if cfg.PostgresDSN != "" {
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			set.Close()
			return nil, err
		}
		repo := postgres.NewCatalogRepository(pool, cfg.PostgresSchema)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			set.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		set.add(repo, pool.Close)
	}

	if cfg.LocalDir != "" {
		sink, err := openLocalSink(cfg.LocalDir)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.add(sink, nil)
	}

	if len(set.sinks) == 0 {
		return nil, errors.New("no publication sinks configured (set publish.sqlite_path, publish.local_dir or CURRICULUM_POSTGRES_DSN)")
	}
	return set, nil
}

func retryConfig(attempts int) publish.RetryConfig {
	rc := publish.DefaultRetryConfig()
	rc.MaxAttempts = attempts
	return rc
}
