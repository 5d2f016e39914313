// Package gitsource keeps a local checkout of a content repository current.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source is a remote content repository and where it is checked out.
type Source struct {
	URL    string
	Path   string
	Branch string // empty means the remote's default branch
	Logger *slog.Logger
}

// Sync clones the repository if Path doesn't exist yet, or pulls the latest
// changes if it does. It returns the commit hash checked out afterwards.
func (s Source) Sync(ctx context.Context) (string, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var repo *git.Repository

	_, err := os.Stat(s.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("cloning content repository", "url", s.URL, "path", s.Path)
		opts := &git.CloneOptions{URL: s.URL}
		if s.Branch != "" {
			opts.ReferenceName = plumbing.NewBranchReferenceName(s.Branch)
			opts.SingleBranch = true
		}
		repo, err = git.PlainCloneContext(ctx, s.Path, false, opts)
		if err != nil {
			return "", fmt.Errorf("clone %s: %w", s.URL, err)
		}

	case err == nil:
		logger.Info("pulling content repository", "path", s.Path)
		repo, err = git.PlainOpen(s.Path)
		if err != nil {
			return "", fmt.Errorf("open repo at %s: %w", s.Path, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return "", fmt.Errorf("get worktree for repo at %s: %w", s.Path, err)
		}

		opts := &git.PullOptions{RemoteName: git.DefaultRemoteName}
		if s.Branch != "" {
			opts.ReferenceName = plumbing.NewBranchReferenceName(s.Branch)
		}
		err = worktree.PullContext(ctx, opts)
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return "", fmt.Errorf("pull changes for repo at %s: %w", s.Path, err)
		}

	default:
		return "", fmt.Errorf("check path %s: %w", s.Path, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	logger.Info("content repository ready", "path", s.Path, "revision", head.Hash().String())
	return head.Hash().String(), nil
}

// Sync clones url into localPath or pulls it if it is already there.
func Sync(ctx context.Context, url, localPath string) error {
	_, err := Source{URL: url, Path: localPath}.Sync(ctx)
	return err
}
