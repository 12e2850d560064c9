// Package gittest provides test utilities for code that shells out to git.
package gittest

import (
	"context"
	"slices"
	"testing"

	"github.com/rbstack/rbstack/internal/git"
)

// Call represents an expected invocation of the git executor.
type Call struct {
	// Args are the expected arguments (excluding "git" and "-C repo").
	Args []string
	// Output is the stdout to return.
	Output string
	// Err is the error to return.
	Err error
}

// Scenario implements an executor that validates calls against an expected
// sequence.
type Scenario struct {
	T     *testing.T
	Calls []Call
	idx   int
}

// NewScenario creates a scenario for testing.
func NewScenario(t *testing.T, calls ...Call) *Scenario {
	return &Scenario{
		T:     t,
		Calls: calls,
	}
}

// Executor returns an executor function for use with git.NewClientWithExecutor.
func (s *Scenario) Executor() git.Executor {
	return func(ctx context.Context, args ...string) (string, error) {
		s.T.Helper()

		// Strip -C flag if present
		cmdArgs := args
		if len(args) > 1 && args[0] == "-C" {
			cmdArgs = args[2:]
		}

		if s.idx >= len(s.Calls) {
			s.T.Fatalf("unexpected call: git %v", cmdArgs)
		}

		call := s.Calls[s.idx]
		s.idx++

		if !slices.Equal(call.Args, cmdArgs) {
			s.T.Fatalf("arg mismatch at call %d:\nwant: %v\ngot:  %v", s.idx, call.Args, cmdArgs)
		}

		return call.Output, call.Err
	}
}

// Verify checks that all expected calls were made.
func (s *Scenario) Verify() {
	s.T.Helper()
	if s.idx < len(s.Calls) {
		s.T.Fatalf("expected call not made: %v", s.Calls[s.idx].Args)
	}
}

// Client returns a git.Client configured with this scenario's executor.
func (s *Scenario) Client() git.Client {
	return git.NewClientWithExecutor("", s.Executor())
}
