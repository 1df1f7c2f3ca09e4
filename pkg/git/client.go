// Package git runs the git CLI against the local data directory so that every
// writeback can be recorded as a commit.
package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// DefaultLockName is the lock file created inside the working directory.
const DefaultLockName = ".murmur.lock"

// Client wraps git command execution with a file lock for process safety.
type Client struct {
	WorkDir string
	Logger  *slog.Logger
	lock    *flock.Flock
}

// NewClient creates a git client for workDir. lockName is relative to
// workDir; empty means DefaultLockName.
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	if lockName == "" {
		lockName = DefaultLockName
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		WorkDir: workDir,
		Logger:  logger,
		lock:    flock.New(filepath.Join(workDir, lockName)),
	}
}

// IsInstalled reports whether the git binary is on PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Lock blocks until the lock is held or ctx ends.
func (c *Client) Lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(c.lock.Path()), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	locked, err := c.lock.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to acquire lock: %s", c.lock.Path())
	}
	return func() {
		_ = c.lock.Unlock()
	}, nil
}

// Run executes a raw git command in the working directory.
// It does not take the lock; callers serialize through Lock.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := string(out)

	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}

	return strings.TrimSpace(output), nil
}

// IsRepo reports whether WorkDir is inside a git work tree.
func (c *Client) IsRepo(ctx context.Context) bool {
	out, err := c.Run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Init creates a repository and makes sure commits have an author.
func (c *Client) Init(ctx context.Context) error {
	if _, err := c.Run(ctx, "init"); err != nil {
		return err
	}
	if _, err := c.Run(ctx, "config", "user.email"); err != nil {
		if _, err := c.Run(ctx, "config", "user.email", "murmur@localhost"); err != nil {
			return err
		}
	}
	if _, err := c.Run(ctx, "config", "user.name"); err != nil {
		if _, err := c.Run(ctx, "config", "user.name", "murmur"); err != nil {
			return err
		}
	}
	return nil
}

// Add stages files.
func (c *Client) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	_, err := c.Run(ctx, args...)
	return err
}

// Remove stages the deletion of files, tracked or not. The working tree is
// not touched.
func (c *Client) Remove(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"rm", "--cached", "--ignore-unmatch", "--quiet", "--"}, files...)
	_, err := c.Run(ctx, args...)
	return err
}

// Commit records the staged changes.
func (c *Client) Commit(ctx context.Context, msg string) error {
	_, err := c.Run(ctx, "commit", "-m", msg)
	return err
}

// Status returns the porcelain status of the repo.
func (c *Client) Status(ctx context.Context) (string, error) {
	return c.Run(ctx, "status", "--porcelain")
}

// HasStaged reports whether the index differs from HEAD.
func (c *Client) HasStaged(ctx context.Context) (bool, error) {
	out, err := c.Run(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return false, err
	}
	return out != "", nil
}
