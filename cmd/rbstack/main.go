package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rbstack/rbstack/internal/config"
	"github.com/rbstack/rbstack/internal/git"
	"github.com/rbstack/rbstack/internal/prompt"
	"github.com/rbstack/rbstack/internal/rbt"
	"github.com/rbstack/rbstack/internal/review"
	"github.com/rbstack/rbstack/internal/style"
	"github.com/spf13/cobra"
)

var (
	repoPath string
)

func main() {
	ctx := context.Background()

	rootCmd := &cobra.Command{
		Use:   "rbstack",
		Short: "rbstack submits a branch's commits as a chain of Review Board requests",
	}

	rootCmd.PersistentFlags().StringVarP(&repoPath, "repo", "R", "", "Path to the repository")

	var server, trackingBranch string
	postCmd := &cobra.Command{
		Use:   "post [-- CLIENT_ARGS...]",
		Short: "Post each commit on the current branch as a separate review request",
		Long: `Post walks the commits between the tracking branch and the branch tip,
oldest first, and submits each one as its own review request, chained to the
previous one with a depends-on link. The resulting review URL is embedded in
the commit message as a 'Review:' trailer so a later run updates the request
instead of creating a new one.

No one likes a 5000 line review request: splitting the branch this way forces
logical commits that can be reviewed independently.

Arguments after '--' are forwarded verbatim to the review client.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(ctx, server, trackingBranch, args)
		},
	}
	postCmd.Flags().StringVar(&server, "server", "", "Review Board server URL")
	postCmd.Flags().StringVar(&trackingBranch, "tracking-branch", "", "Upstream branch the commits are compared against")

	var linter string
	styleCmd := &cobra.Command{
		Use:   "style [FILES...]",
		Short: "Run the license-header check and the linter over the source tree",
		Long: `Style checks the given files, or every source file under the configured
roots when none are given. The process exit code is the total number of
errors found.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checker := style.NewChecker(style.Cpplint(linter), os.Stdout, os.Stderr)
			total, err := checker.Run(ctx, args)
			if err != nil {
				return err
			}
			if total > 0 {
				os.Exit(total)
			}
			return nil
		},
	}
	styleCmd.Flags().StringVar(&linter, "linter", "cpplint", "Linter executable to run")

	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(styleCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPost(ctx context.Context, server, trackingBranch string, passthrough []string) error {
	g := git.NewClient(repoPath)

	poster, err := rbt.Detect(ctx)
	if err != nil {
		return err
	}

	if err := review.CheckWorkingTree(ctx, g); err != nil {
		return err
	}

	topLevel, err := g.TopLevel(ctx)
	if err != nil {
		return err
	}
	cfg, err := config.Load(topLevel)
	if err != nil {
		return err
	}
	server = config.Resolve(server, cfg.ReviewBoardURL)
	trackingBranch = config.Resolve(trackingBranch, cfg.TrackingBranch)

	chain, err := review.Discover(ctx, g, trackingBranch)
	if err != nil {
		return err
	}

	tempBranch := "_post-reviews_" + chain.Branch

	// Always put us back on the original branch and drop the scratch branch,
	// whatever state the run ended in.
	defer func() {
		_ = g.Checkout(ctx, chain.Branch)
		_ = g.DeleteBranch(ctx, tempBranch)
	}()

	result, err := review.Submit(ctx, g, poster, prompt.New(), os.Stdout, review.SubmitParams{
		Chain:       chain,
		ServerURL:   server,
		TempBranch:  tempBranch,
		Passthrough: passthrough,
	})
	if errors.Is(err, prompt.ErrAborted) {
		return nil
	}
	if errors.Is(err, rbt.ErrLoginRequired) {
		fmt.Fprintln(os.Stderr, "You can either:")
		fmt.Fprintln(os.Stderr, "  (1) Run 'rbt login', or")
		fmt.Fprintln(os.Stderr, "  (2) Set the default USERNAME/PASSWORD in '.reviewboardrc'")
		return err
	}
	if err != nil {
		return err
	}

	fmt.Printf("Created %d review(s), updated %d, skipped %d\n", result.Created, result.Updated, result.Skipped)
	return nil
}
