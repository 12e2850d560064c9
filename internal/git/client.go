package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Executor defines the function signature for running git commands.
type Executor func(ctx context.Context, args ...string) (stdout string, err error)

// defaultExecutor implements Executor using os/exec to run "git".
func defaultExecutor(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command failed: git %s\nerror: %w\nstderr: %s", strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}

// Client defines the interface for interacting with git.
type Client interface {
	Run(context.Context, ...string) (string, error)
	TopLevel(context.Context) (string, error)
	CurrentBranch(context.Context) (string, error)
	DiffShortStat(ctx context.Context, staged bool) (string, error)
	MergeBase(ctx context.Context, a, b string) (string, error)
	Commits(ctx context.Context, from, to string) ([]string, error)
	Message(ctx context.Context, from, to string) (string, error)
	Log(ctx context.Context, format, from, to string) (string, error)
	RevParse(ctx context.Context, rev string) (string, error)
	Checkout(ctx context.Context, rev string) error
	CheckoutNew(ctx context.Context, branch string) error
	ResetHard(ctx context.Context, rev string) error
	Amend(ctx context.Context, message string) error
	Rebase(ctx context.Context, onto string) error
	UpdateRef(ctx context.Context, ref, newValue, oldValue string) error
	DeleteBranch(ctx context.Context, branch string) error
}

type client struct {
	repository string
	executor   Executor
}

// NewClient creates a client with the default executor. If repository is
// non-empty, all commands run against that directory.
func NewClient(repository string) Client {
	return &client{
		repository: repository,
		executor:   defaultExecutor,
	}
}

// NewClientWithExecutor creates a client with a custom executor.
func NewClientWithExecutor(repository string, exec Executor) Client {
	return &client{
		repository: repository,
		executor:   exec,
	}
}

// Run executes a git command and returns its output.
func (g *client) Run(ctx context.Context, args ...string) (string, error) {
	if g.repository != "" {
		args = append([]string{"-C", g.repository}, args...)
	}
	return g.executor(ctx, args...)
}

// TopLevel returns the absolute path of the repository root.
func (g *client) TopLevel(ctx context.Context) (string, error) {
	out, err := g.Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("failed to get top-level directory: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// CurrentBranch returns the short name of the checked-out branch.
func (g *client) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.Run(ctx, "symbolic-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	ref := strings.TrimSpace(out)
	return strings.TrimPrefix(ref, "refs/heads/"), nil
}

// DiffShortStat returns the short diffstat of the working tree, or of the
// index when staged is true. An empty result means a clean tree.
func (g *client) DiffShortStat(ctx context.Context, staged bool) (string, error) {
	args := []string{"diff", "--shortstat"}
	if staged {
		args = append(args, "--staged")
	}
	out, err := g.Run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to diff: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// MergeBase returns the most recent common ancestor of two revisions.
func (g *client) MergeBase(ctx context.Context, a, b string) (string, error) {
	out, err := g.Run(ctx, "merge-base", a, b)
	if err != nil {
		return "", fmt.Errorf("failed to compute merge base of %s and %s: %w", a, b, err)
	}
	return strings.TrimSpace(out), nil
}

// Commits returns the hashes in from..to, oldest first.
func (g *client) Commits(ctx context.Context, from, to string) ([]string, error) {
	out, err := g.Run(ctx, "--no-pager", "log", "--no-color", "--pretty=oneline", "--reverse", from+".."+to)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits in %s..%s: %w", from, to, err)
	}
	var shas []string
	for line := range strings.SplitSeq(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		shas = append(shas, fields[0])
	}
	return shas, nil
}

// Message returns the subject and body of the commits in from..to.
func (g *client) Message(ctx context.Context, from, to string) (string, error) {
	out, err := g.Run(ctx, "--no-pager", "log", "--pretty=format:%s%n%n%b", from+".."+to)
	if err != nil {
		return "", fmt.Errorf("failed to get message for %s..%s: %w", from, to, err)
	}
	return out, nil
}

// Log returns the log of from..to rendered with the given pretty format.
func (g *client) Log(ctx context.Context, format, from, to string) (string, error) {
	out, err := g.Run(ctx, "--no-pager", "log", format, from+".."+to)
	if err != nil {
		return "", fmt.Errorf("failed to log %s..%s: %w", from, to, err)
	}
	return out, nil
}

// RevParse resolves a revision to its full hash.
func (g *client) RevParse(ctx context.Context, rev string) (string, error) {
	out, err := g.Run(ctx, "rev-parse", rev)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	return strings.TrimSpace(out), nil
}

// Checkout checks out the given revision or branch.
func (g *client) Checkout(ctx context.Context, rev string) error {
	if _, err := g.Run(ctx, "checkout", rev); err != nil {
		return fmt.Errorf("failed to check out %s: %w", rev, err)
	}
	return nil
}

// CheckoutNew creates and checks out a new branch at HEAD.
func (g *client) CheckoutNew(ctx context.Context, branch string) error {
	if _, err := g.Run(ctx, "checkout", "-b", branch); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	return nil
}

// ResetHard resets the current branch to the given revision.
func (g *client) ResetHard(ctx context.Context, rev string) error {
	if _, err := g.Run(ctx, "reset", "--hard", rev); err != nil {
		return fmt.Errorf("failed to reset to %s: %w", rev, err)
	}
	return nil
}

// Amend rewrites the message of the commit at HEAD.
func (g *client) Amend(ctx context.Context, message string) error {
	if _, err := g.Run(ctx, "commit", "--amend", "-m", message); err != nil {
		return fmt.Errorf("failed to amend commit: %w", err)
	}
	return nil
}

// Rebase rebases the current HEAD onto the given branch.
func (g *client) Rebase(ctx context.Context, onto string) error {
	if _, err := g.Run(ctx, "rebase", onto); err != nil {
		return fmt.Errorf("failed to rebase onto %s: %w", onto, err)
	}
	return nil
}

// UpdateRef moves ref to newValue, requiring that it currently points at
// oldValue. Git rejects the update if the ref moved underneath us.
func (g *client) UpdateRef(ctx context.Context, ref, newValue, oldValue string) error {
	if _, err := g.Run(ctx, "update-ref", ref, newValue, oldValue); err != nil {
		return fmt.Errorf("failed to update %s: %w", ref, err)
	}
	return nil
}

// DeleteBranch force-deletes a local branch.
func (g *client) DeleteBranch(ctx context.Context, branch string) error {
	if _, err := g.Run(ctx, "branch", "-D", branch); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", branch, err)
	}
	return nil
}
