package review

import (
	"context"
	"fmt"

	"github.com/rbstack/rbstack/internal/git"
)

// ProtectedBranch is the integration branch that must never be submitted
// from directly.
const ProtectedBranch = "master"

// Chain is the ordered list of not-yet-integrated commits between the
// tracking branch and the current branch tip.
type Chain struct {
	Branch         string   // short name of the current branch
	TrackingBranch string   // upstream branch the chain is compared against
	MergeBase      string   // most recent common ancestor, excluded from Commits
	Commits        []string // commit hashes, oldest first
}

// CheckWorkingTree fails when the working tree or the index carry changes
// that a rebase would clobber.
func CheckWorkingTree(ctx context.Context, g git.Client) error {
	stat, err := g.DiffShortStat(ctx, false)
	if err != nil {
		return err
	}
	if stat != "" {
		return fmt.Errorf("please commit or stash any changes before using post-reviews")
	}
	stat, err = g.DiffShortStat(ctx, true)
	if err != nil {
		return err
	}
	if stat != "" {
		return fmt.Errorf("please commit staged changes before using post-reviews")
	}
	return nil
}

// Discover computes the commit chain from the merge base of the tracking
// branch and HEAD (exclusive) to the branch tip (inclusive), oldest first.
// It fails on the protected integration branch and when the range is empty.
func Discover(ctx context.Context, g git.Client, trackingBranch string) (*Chain, error) {
	branch, err := g.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	if branch == ProtectedBranch {
		return nil, fmt.Errorf("we're expecting you to be working on another branch from %s", ProtectedBranch)
	}
	mergeBase, err := g.MergeBase(ctx, trackingBranch, "refs/heads/"+branch)
	if err != nil {
		return nil, err
	}
	commits, err := g.Commits(ctx, mergeBase, "HEAD")
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, fmt.Errorf("no new changes compared with %s branch", ProtectedBranch)
	}
	return &Chain{
		Branch:         branch,
		TrackingBranch: trackingBranch,
		MergeBase:      mergeBase,
		Commits:        commits,
	}, nil
}
