// Package rbt adapts the Review Board command-line clients ("rbt", or the
// older "post-review") to the review.Poster interface.
package rbt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/rbstack/rbstack/internal/review"
)

// Executor defines the function signature for running client commands.
type Executor func(ctx context.Context, name string, args ...string) (stdout string, err error)

// defaultExecutor runs the named command, merging stderr into the captured
// output the way the clients expect to be read.
func defaultExecutor(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("command failed: %s %s: %w", name, strings.Join(args, " "), err)
	}
	return out.String(), nil
}

// ErrNotInstalled is returned by Detect when neither client binary is
// available.
var ErrNotInstalled = errors.New("no Review Board client found")

// ErrLoginRequired is returned by Post when the server rejected the request
// for lack of credentials.
var ErrLoginRequired = errors.New("review server login required")

// loginPrompt is the substring the clients print when the server wants
// credentials.
const loginPrompt = "Please log in to the Review Board server"

// URLLine selects which line of the client's output carries the review URL.
type URLLine int

const (
	// LastLine is where post-review prints the review URL.
	LastLine URLLine = iota
	// SecondToLastLine is where rbt prints the review URL.
	SecondToLastLine
)

// Version is a Review Board client version.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether v is at or above the given version.
func (v Version) AtLeast(major, minor, patch int) bool {
	if v.Major != major {
		return v.Major > major
	}
	if v.Minor != minor {
		return v.Minor > minor
	}
	return v.Patch >= patch
}

var versionRegex = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion extracts a version from `--version` output such as
// "RBTools 0.6.1" or "RBTools 0.6.1 (Python 2.7)".
func ParseVersion(s string) (Version, error) {
	match := versionRegex.FindStringSubmatch(s)
	if match == nil {
		return Version{}, fmt.Errorf("unrecognized version output: %q", strings.TrimSpace(s))
	}
	major, _ := strconv.Atoi(match[1])
	minor, _ := strconv.Atoi(match[2])
	patch := 0
	if match[3] != "" {
		patch, _ = strconv.Atoi(match[3])
	}
	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// Client invokes a Review Board command-line client. It implements
// review.Poster.
type Client struct {
	exe      string   // client binary, "rbt" or "post-review"
	baseArgs []string // leading subcommand args, e.g. ["post"] for rbt
	version  Version
	urlLine  URLLine
	executor Executor
}

// Detect probes for an installed client, preferring rbt over post-review.
func Detect(ctx context.Context) (*Client, error) {
	return DetectWithExecutor(ctx, defaultExecutor)
}

// DetectWithExecutor is Detect with a custom executor.
func DetectWithExecutor(ctx context.Context, exec Executor) (*Client, error) {
	if out, err := exec(ctx, "rbt", "--version"); err == nil {
		version, err := ParseVersion(out)
		if err != nil {
			return nil, err
		}
		return &Client{
			exe:      "rbt",
			baseArgs: []string{"post"},
			version:  version,
			urlLine:  SecondToLastLine,
			executor: exec,
		}, nil
	}
	if _, err := exec(ctx, "post-review", "--version"); err == nil {
		return &Client{
			exe:      "post-review",
			urlLine:  LastLine,
			executor: exec,
		}, nil
	}
	return nil, fmt.Errorf("please install RBTools before proceeding: %w", ErrNotInstalled)
}

// NewClientWithExecutor constructs a client without probing, for testing.
func NewClientWithExecutor(exe string, baseArgs []string, version Version, urlLine URLLine, exec Executor) *Client {
	return &Client{
		exe:      exe,
		baseArgs: baseArgs,
		version:  version,
		urlLine:  urlLine,
		executor: exec,
	}
}

// Name names the client invocation, e.g. "rbt post".
func (c *Client) Name() string {
	return strings.Join(append([]string{c.exe}, c.baseArgs...), " ")
}

// supportsRevisionPair reports whether revisions are passed as trailing
// arguments rather than a --revision-range option. rbt gained this in 0.6.
func (c *Client) supportsRevisionPair() bool {
	return c.exe == "rbt" && c.version.AtLeast(0, 6, 0)
}

// supportsDependsOn reports whether the client accepts --depends-on.
// rbt gained this in 0.6.1.
func (c *Client) supportsDependsOn() bool {
	return c.exe == "rbt" && c.version.AtLeast(0, 6, 1)
}

// Post submits one review request and returns the client's output.
func (c *Client) Post(ctx context.Context, req review.PostRequest) (string, error) {
	args := append([]string(nil), c.baseArgs...)
	args = append(args, "--tracking-branch="+req.TrackingBranch)
	if req.ReviewRequestID != "" {
		args = append(args, "--review-request-id="+req.ReviewRequestID)
	}
	if c.supportsRevisionPair() {
		// Only set the depends-on link if this is not the first review in
		// the chain.
		if req.DependsOn != "" && c.supportsDependsOn() {
			args = append(args, "--depends-on="+req.DependsOn)
		}
		args = append(args, req.Passthrough...)
		args = append(args, req.Base, req.Tip)
	} else {
		args = append(args, "--revision-range="+req.Base+":"+req.Tip)
		args = append(args, req.Passthrough...)
	}
	out, err := c.executor(ctx, c.exe, args...)
	if err != nil {
		if strings.Contains(out, loginPrompt) {
			return out, fmt.Errorf("%s: %w", loginPrompt, ErrLoginRequired)
		}
		return out, fmt.Errorf("failed to post review: %w\noutput: %s", err, strings.TrimSpace(out))
	}
	return out, nil
}

// ReviewURL selects the line of the client's output that carries the review
// URL: the last non-empty line for post-review, the one before it for rbt.
func (c *Client) ReviewURL(output string) (string, error) {
	var lines []string
	for line := range strings.SplitSeq(strings.TrimSpace(output), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	want := len(lines) - 1
	if c.urlLine == SecondToLastLine {
		want--
	}
	if want < 0 {
		return "", fmt.Errorf("no review URL in %s output: %q", c.Name(), strings.TrimSpace(output))
	}
	return lines[want], nil
}
