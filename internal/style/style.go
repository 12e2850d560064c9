// Package style runs the project style checks: a license-header scan plus an
// external linter over the C++ source tree.
package style

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Root source paths, traversed recursively.
var defaultSourceDirs = []string{
	"src",
	"include",
	filepath.Join("3rdparty", "libprocess"),
}

// Paths that should not be checked: bundled third-party libraries, generated
// sources, and docs.
var defaultExclude = regexp.MustCompile(`(protobuf-2\.4\.1|gmock-1\.6\.0|glog-0\.3\.3|boost-1\.53\.0|libev-4\.15|java/jni|\.pb\.cc|\.pb\.h|\.md)`)

var defaultSources = regexp.MustCompile(`\.(cpp|hpp|cc|h)$`)

// The allow-list of linter rule categories.
var defaultRules = []string{
	"build/class",
	"build/deprecated",
	"build/endif_comment",
	"readability/todo",
	"readability/namespace",
	"runtime/vlog",
	"whitespace/blank_line",
	"whitespace/comma",
	"whitespace/end_of_line",
	"whitespace/ending_newline",
	"whitespace/forcolon",
	"whitespace/indent",
	"whitespace/line_length",
	"whitespace/operators",
	"whitespace/semicolon",
	"whitespace/tab",
	"whitespace/todo",
}

var licenseRegex = regexp.MustCompile(`^// (Licensed|Copyright)`)

// LintFunc runs a linter over the given files with the given rules filter,
// writing the linter's raw output to sink and returning its error count.
type LintFunc func(ctx context.Context, rulesFilter string, paths []string, sink io.Writer) (int, error)

// Checker runs the style checks over a source tree.
type Checker struct {
	SourceDirs []string
	Exclude    *regexp.Regexp
	Sources    *regexp.Regexp
	Rules      []string
	Lint       LintFunc

	out  io.Writer // progress messages
	errw io.Writer // violations
}

// NewChecker creates a checker with the default tree layout and rules.
func NewChecker(lint LintFunc, out, errw io.Writer) *Checker {
	return &Checker{
		SourceDirs: defaultSourceDirs,
		Exclude:    defaultExclude,
		Sources:    defaultSources,
		Rules:      defaultRules,
		Lint:       lint,
		out:        out,
		errw:       errw,
	}
}

// Run checks the given file paths, or every candidate under the source roots
// when no paths are given. It returns the total error count; zero means
// clean.
func (c *Checker) Run(ctx context.Context, paths []string) (int, error) {
	candidates, err := c.candidates()
	if err != nil {
		return 0, err
	}

	// Explicit paths are reduced to the set that is also a candidate.
	var selected []string
	if len(paths) == 0 {
		selected = candidates
	} else {
		candidateSet := make(map[string]bool, len(candidates))
		for _, p := range candidates {
			candidateSet[p] = true
		}
		seen := make(map[string]bool)
		for _, p := range paths {
			abs, err := filepath.Abs(strings.TrimSpace(p))
			if err != nil {
				return 0, err
			}
			if candidateSet[abs] && !seen[abs] {
				selected = append(selected, abs)
				seen[abs] = true
			}
		}
	}
	sort.Strings(selected)

	if len(selected) == 0 {
		fmt.Fprintln(c.out, "No files to lint")
		return 0, nil
	}
	fmt.Fprintf(c.out, "Checking %d files\n", len(selected))

	licenseErrors := c.checkLicenseHeader(selected)

	rulesFilter := "--filter=-,+" + strings.Join(c.Rules, ",+")
	var captured bytes.Buffer
	lintErrors, err := c.Lint(ctx, rulesFilter, selected, &captured)
	if err != nil {
		return licenseErrors, err
	}

	// Only show found errors; "Done processing XXX." tends to dominate the
	// output and the total is reported below.
	for line := range strings.SplitSeq(captured.String(), "\n") {
		if strings.HasPrefix(line, "Done processing ") || strings.HasPrefix(line, "Total errors found: ") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintln(c.errw, line)
	}

	total := licenseErrors + lintErrors
	fmt.Fprintf(c.errw, "Total errors found: %d\n", total)
	return total, nil
}

// candidates returns the absolute paths of all checkable files under the
// source roots.
func (c *Checker) candidates() ([]string, error) {
	var candidates []string
	for _, dir := range c.SourceDirs {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("could not find %q: please run from the root of the source directory", dir)
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if c.Exclude.MatchString(path) {
				return nil
			}
			if !c.Sources.MatchString(d.Name()) {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			candidates = append(candidates, abs)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return candidates, nil
}

// checkLicenseHeader verifies that each file opens with a correctly formed
// license comment and returns the number of violations.
func (c *Checker) checkLicenseHeader(paths []string) int {
	errorCount := 0
	for _, path := range paths {
		head, err := firstLine(path)
		if err != nil {
			fmt.Fprintf(c.errw, "%s:1:  %v\n", path, err)
			errorCount++
			continue
		}
		if !licenseRegex.MatchString(head) {
			fmt.Fprintf(c.errw, "%s:1:  A license header should appear on the file's first line starting with '// Licensed'.: %s\n", path, head)
			errorCount++
		}
	}
	return errorCount
}

func firstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Scan()
	return scanner.Text(), scanner.Err()
}

var totalErrorsRegex = regexp.MustCompile(`Total errors found: (\d+)`)

// Cpplint returns a LintFunc that shells out to a cpplint-style linter. The
// linter's combined output is written to the sink and the error count is
// read from its "Total errors found: N" summary line. The linter exits
// non-zero when it finds errors, so a failed run that still produced a
// summary is not an execution error.
func Cpplint(exe string) LintFunc {
	return func(ctx context.Context, rulesFilter string, paths []string, sink io.Writer) (int, error) {
		args := append([]string{rulesFilter}, paths...)
		cmd := exec.CommandContext(ctx, exe, args...)
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out
		runErr := cmd.Run()
		if _, err := sink.Write(out.Bytes()); err != nil {
			return 0, err
		}
		match := totalErrorsRegex.FindStringSubmatch(out.String())
		if match == nil {
			if runErr != nil {
				return 0, fmt.Errorf("failed to run %s: %w\noutput: %s", exe, runErr, strings.TrimSpace(out.String()))
			}
			return 0, nil
		}
		count, err := strconv.Atoi(match[1])
		if err != nil {
			return 0, err
		}
		return count, nil
	}
}
