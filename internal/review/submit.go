package review

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rbstack/rbstack/internal/git"
	"github.com/rbstack/rbstack/internal/prompt"
)

// PostRequest contains the parameters for one review-client invocation.
type PostRequest struct {
	TrackingBranch  string
	ReviewRequestID string   // non-empty when updating an existing request
	DependsOn       string   // request id of the previous chain entry, if any
	Base, Tip       string   // the revision range Base..Tip being posted
	Passthrough     []string // extra args forwarded verbatim to the client
}

// Poster defines the interface for the external review-service client.
type Poster interface {
	// Name names the underlying client invocation, e.g. "rbt post".
	Name() string
	// Post submits one review request and returns the client's output.
	Post(ctx context.Context, req PostRequest) (string, error)
	// ReviewURL selects the line of the client's output that carries the
	// review URL. Which line that is depends on the client.
	ReviewURL(output string) (string, error)
}

// SubmitParams contains parameters for the submit operation.
type SubmitParams struct {
	Chain       *Chain
	ServerURL   string   // review server base URL, used to match trailers
	TempBranch  string   // scratch branch used for amending and rebasing
	Passthrough []string // extra args forwarded verbatim to the client
}

// SubmitResult contains statistics about the submit operation.
type SubmitResult struct {
	Created int
	Updated int
	Skipped int
}

// chainState is the accumulator carried across chain positions: the revision
// the next diff is taken against, the request id the next review depends on,
// and the remaining hashes, rewritten in place as the chain is rebased.
type chainState struct {
	previous  string
	dependsOn string
	shas      []string
}

// Git pretty formats for the operator-facing logs. The update, parent, and
// history variants carry a relative-timestamp suffix.
const (
	createLogFormat = "--pretty=format:%Cred%H%Creset -%C(yellow)%d%Creset %s"
	updateLogFormat = "--pretty=format:%Cred%H%Creset -%C(yellow)%d%Creset %s %Cgreen(%cr)%Creset"
)

// Submit posts each commit in the chain as a separate review request, in
// order, linking each request to its predecessor and embedding the resulting
// review URL as a trailer in the commit message. Creating a trailer amends
// the commit, so every subsequent commit in the chain is rebased onto the
// amended one before the loop advances.
func Submit(ctx context.Context, g git.Client, poster Poster, confirm prompt.Confirmer, out io.Writer, params SubmitParams) (*SubmitResult, error) {
	chain := params.Chain
	result := &SubmitResult{}

	history, err := g.Log(ctx, updateLogFormat, chain.MergeBase, "HEAD")
	if err != nil {
		return result, err
	}
	fmt.Fprintf(out, "Running '%s' across all of ...\n%s\n", poster.Name(), history)

	st := &chainState{
		previous: chain.TrackingBranch,
		shas:     append([]string(nil), chain.Commits...),
	}
	for i := 0; i < len(st.shas); i++ {
		sha := st.shas[i]

		// Speculative cleanup; the branch may not exist yet.
		_ = g.DeleteBranch(ctx, params.TempBranch)

		message, err := g.Message(ctx, st.previous, sha)
		if err != nil {
			return result, err
		}

		requestID, exists, err := ExtractRequestID(message, params.ServerURL)
		if err != nil {
			return result, err
		}

		if !exists {
			header, err := g.Log(ctx, createLogFormat, st.previous, sha)
			if err != nil {
				return result, err
			}
			fmt.Fprintf(out, "\nCreating diff of:\n%s\n", header)
		} else {
			header, err := g.Log(ctx, updateLogFormat, st.previous, sha)
			if err != nil {
				return result, err
			}
			fmt.Fprintf(out, "\nUpdating diff of:\n%s\n", header)
		}

		parents, err := g.Log(ctx, updateLogFormat, chain.TrackingBranch, st.previous)
		if err != nil {
			return result, err
		}
		if parents != "" {
			fmt.Fprintf(out, "\n... with parent diff created from:\n%s\n", parents)
		}

		proceed, err := confirm.ConfirmOrSkip()
		if err != nil {
			return result, err
		}
		if !proceed {
			// A skipped commit still propagates its request id forward as
			// the depends-on parent of the next chain entry.
			st.previous = sha
			st.dependsOn = requestID
			result.Skipped++
			continue
		}

		output, err := poster.Post(ctx, PostRequest{
			TrackingBranch:  chain.TrackingBranch,
			ReviewRequestID: requestID,
			DependsOn:       st.dependsOn,
			Base:            st.previous,
			Tip:             sha,
			Passthrough:     params.Passthrough,
		})
		if err != nil {
			return result, err
		}
		fmt.Fprintln(out, strings.TrimSpace(output))

		if exists {
			result.Updated++
			st.previous = sha
			st.dependsOn = requestID
			continue
		}

		urlLine, err := poster.ReviewURL(output)
		if err != nil {
			return result, err
		}
		url := NormalizeURL(urlLine)

		amended, err := amendAndRebase(ctx, g, st, i, chain.Branch, params.TempBranch, AppendTrailer(message, url))
		if err != nil {
			return result, err
		}
		result.Created++
		st.previous = amended
		st.dependsOn = RequestID(url)
	}
	return result, nil
}

// amendAndRebase rewrites the commit at position i with the given message and
// rebases every subsequent commit in st.shas onto it, recording the new
// hashes. The working branch ref is moved to the rewritten tip with a
// compare-and-swap update. Returns the hash of the amended commit.
func amendAndRebase(ctx context.Context, g git.Client, st *chainState, i int, branch, tempBranch, message string) (string, error) {
	if err := g.CheckoutNew(ctx, tempBranch); err != nil {
		return "", err
	}
	if err := g.ResetHard(ctx, st.shas[i]); err != nil {
		return "", err
	}
	if err := g.Amend(ctx, message); err != nil {
		return "", err
	}
	tempRef := "refs/heads/" + tempBranch
	amended, err := g.RevParse(ctx, tempRef)
	if err != nil {
		return "", err
	}

	last := amended
	for j := i + 1; j < len(st.shas); j++ {
		if err := g.Checkout(ctx, st.shas[j]); err != nil {
			return "", err
		}
		if err := g.Rebase(ctx, tempBranch); err != nil {
			return "", err
		}
		// The rebased commit is at our detached HEAD.
		rebased, err := g.RevParse(ctx, "HEAD")
		if err != nil {
			return "", err
		}
		if err := g.UpdateRef(ctx, tempRef, rebased, last); err != nil {
			return "", err
		}
		last = rebased
		st.shas[j] = rebased
	}

	branchRef := "refs/heads/" + branch
	oldTip, err := g.RevParse(ctx, branchRef)
	if err != nil {
		return "", err
	}
	if err := g.UpdateRef(ctx, branchRef, last, oldTip); err != nil {
		return "", err
	}
	return amended, nil
}
