package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does.
func Sync(ctx context.Context, repoURL, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("Cloning deck repository", "url", repoURL, "path", localPath)
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:   repoURL,
			Depth: 1,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", repoURL, err)
		}
	case err == nil:
		slog.Info("Pulling deck repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}

		err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	return nil
}

// IsGitURL reports whether path names a remote repository rather than a
// local directory.
func IsGitURL(path string) bool {
	return strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://")
}

// LocalPath maps a repository URL to its checkout directory under baseDir.
// Both https and scp-style (git@host:owner/repo.git) URLs are accepted.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		userHost, repoPath, ok := strings.Cut(repoURL, ":")
		_, host, hasUser := strings.Cut(userHost, "@")
		if ok && hasUser && host != "" && repoPath != "" {
			return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	return filepath.Join(baseDir, parsedURL.Host, strings.TrimSuffix(parsedURL.Path, ".git")), nil
}
