//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/callumalpass/study-program/internal/curriculum"
	"github.com/callumalpass/study-program/internal/domain"
	"github.com/callumalpass/study-program/internal/storage"
	"github.com/callumalpass/study-program/internal/storage/postgres"
)

// setupPostgres starts a PostgreSQL container for testing
func setupPostgres(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "catalog",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	host, err := container.Host(ctx)
	if err != nil {
		cleanup()
		t.Fatalf("failed to get host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		cleanup()
		t.Fatalf("failed to get port: %v", err)
	}

	return fmt.Sprintf("postgres://test:test@%s:%s/catalog?sslmode=disable", host, port.Port()), cleanup
}

func snapshot(t *testing.T, warnings ...string) *storage.Snapshot {
	t.Helper()
	s := curriculum.MustCompose(curriculum.SubjectMeta{ID: "s1", Title: "Subject"},
		curriculum.Collection{SubjectID: "s1", TopicID: "t1", Exercises: []domain.Exercise{
			domain.NewWritten("w1", "s1", "t1", "Written", "Explain", 1, []string{"hint"}, "answer"),
			domain.NewCoding("c1", "s1", "t1", "Coding", "Implement", 2, nil, domain.Coding{
				SolutionCode: "def f(): return 1",
				Language:     domain.LanguagePython,
				TestCases:    []domain.TestCase{{Args: []any{}, Expected: 1}},
			}),
		}})
	c, err := curriculum.NewCorpus(s)
	if err != nil {
		t.Fatalf("NewCorpus() error = %v", err)
	}
	snap, err := storage.NewSnapshot(c, time.Now())
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	snap.Warnings = warnings
	return snap
}

func TestIntegration_CatalogRepository(t *testing.T) {
	dsn, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer pool.Close()

	repo := postgres.NewCatalogRepository(pool, "catalog_test")
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema() error = %v", err)
	}

	if _, err := repo.Digest(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Digest() on empty schema error = %v, want ErrNotFound", err)
	}

	first := snapshot(t)
	if err := repo.WriteCatalog(ctx, first); err != nil {
		t.Fatalf("WriteCatalog() error = %v", err)
	}
	second := snapshot(t, "warning [empty_field] c1: starter code is empty")
	if err := repo.WriteCatalog(ctx, second); err != nil {
		t.Fatalf("second WriteCatalog() error = %v", err)
	}

	d, err := repo.Digest(ctx)
	if err != nil || d != second.Digest {
		t.Errorf("Digest() = %q, %v; want %q", d, err, second.Digest)
	}

	all, err := repo.ListExercises(ctx, "")
	if err != nil {
		t.Fatalf("ListExercises() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != "w1" || all[1].ID != "c1" {
		t.Errorf("ListExercises() = %+v", all)
	}

	rec, err := repo.GetExercise(ctx, "c1")
	if err != nil {
		t.Fatalf("GetExercise() error = %v", err)
	}
	if rec.Language != "python" {
		t.Errorf("Language = %q, want python", rec.Language)
	}
	if _, err := rec.Exercise(); err != nil {
		t.Errorf("Exercise() error = %v", err)
	}

	if _, err := repo.GetExercise(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetExercise(missing) error = %v, want ErrNotFound", err)
	}

	warnings, err := repo.LastWarnings(ctx)
	if err != nil {
		t.Fatalf("LastWarnings() error = %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("LastWarnings() = %v, want one warning", warnings)
	}
}
