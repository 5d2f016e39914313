package gitsource

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func commitFile(t *testing.T, repo *git.Repository, dir, name, data string) string {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() error = %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("Add(%s) error = %v", name, err)
	}
	hash, err := wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Author", Email: "author@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	return hash.String()
}

func TestSync_CloneThenPull(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available for the local transport")
	}

	ctx := context.Background()
	src := t.TempDir()
	repo, err := git.PlainInit(src, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	first := commitFile(t, repo, src, "subject.yaml", "id: cs101\n")

	dst := filepath.Join(t.TempDir(), "checkout")
	rev, err := Source{URL: src, Path: dst}.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() clone error = %v", err)
	}
	if rev != first {
		t.Errorf("revision = %s, want %s", rev, first)
	}
	if _, err := os.Stat(filepath.Join(dst, "subject.yaml")); err != nil {
		t.Errorf("cloned file missing: %v", err)
	}

	second := commitFile(t, repo, src, "loops.yaml", "exercises: []\n")
	rev, err = Source{URL: src, Path: dst}.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() pull error = %v", err)
	}
	if rev != second {
		t.Errorf("revision = %s, want %s", rev, second)
	}
	if _, err := os.Stat(filepath.Join(dst, "loops.yaml")); err != nil {
		t.Errorf("pulled file missing: %v", err)
	}

	if err := Sync(ctx, src, dst); err != nil {
		t.Errorf("Sync() when up to date error = %v", err)
	}
}

func TestSync_ExistingDirectoryIsNotARepo(t *testing.T) {
	dir := t.TempDir()
	if err := Sync(context.Background(), "https://example.invalid/content.git", dir); err == nil {
		t.Error("Sync() should fail for a directory that is not a git repository")
	}
}

func TestSync_RepoWithoutOrigin(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	commitFile(t, repo, dir, "subject.yaml", "id: cs101\n")

	if err := Sync(context.Background(), "unused", dir); err == nil {
		t.Error("Sync() should fail when the checkout has no origin remote")
	}
}
