package review

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rbstack/rbstack/internal/gittest"
)

func TestDiscover(t *testing.T) {
	scenario := gittest.NewScenario(t,
		gittest.Call{
			Args:   []string{"symbolic-ref", "HEAD"},
			Output: "refs/heads/feature\n",
		},
		gittest.Call{
			Args:   []string{"merge-base", "origin/master", "refs/heads/feature"},
			Output: "basebase\n",
		},
		gittest.Call{
			Args:   []string{"--no-pager", "log", "--no-color", "--pretty=oneline", "--reverse", "basebase..HEAD"},
			Output: "aaaa First change\nbbbb Second change\ncccc Third change\n",
		},
	)

	chain, err := Discover(context.Background(), scenario.Client(), "origin/master")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	want := &Chain{
		Branch:         "feature",
		TrackingBranch: "origin/master",
		MergeBase:      "basebase",
		Commits:        []string{"aaaa", "bbbb", "cccc"},
	}
	if diff := cmp.Diff(want, chain); diff != "" {
		t.Errorf("Discover() mismatch (-want +got):\n%s", diff)
	}
	scenario.Verify()
}

func TestDiscover_ProtectedBranch(t *testing.T) {
	scenario := gittest.NewScenario(t,
		gittest.Call{
			Args:   []string{"symbolic-ref", "HEAD"},
			Output: "refs/heads/master\n",
		},
	)

	_, err := Discover(context.Background(), scenario.Client(), "origin/master")
	if err == nil {
		t.Fatal("Discover() expected error on protected branch")
	}
	scenario.Verify()
}

func TestDiscover_EmptyRange(t *testing.T) {
	scenario := gittest.NewScenario(t,
		gittest.Call{
			Args:   []string{"symbolic-ref", "HEAD"},
			Output: "refs/heads/feature\n",
		},
		gittest.Call{
			Args:   []string{"merge-base", "origin/master", "refs/heads/feature"},
			Output: "basebase\n",
		},
		gittest.Call{
			Args:   []string{"--no-pager", "log", "--no-color", "--pretty=oneline", "--reverse", "basebase..HEAD"},
			Output: "",
		},
	)

	_, err := Discover(context.Background(), scenario.Client(), "origin/master")
	if err == nil {
		t.Fatal("Discover() expected error on empty commit range")
	}
	scenario.Verify()
}

func TestCheckWorkingTree(t *testing.T) {
	tests := []struct {
		name     string
		unstaged string
		staged   string
		wantErr  bool
	}{
		{
			name: "clean tree",
		},
		{
			name:     "unstaged changes",
			unstaged: " 1 file changed, 2 insertions(+)\n",
			wantErr:  true,
		},
		{
			name:    "staged changes",
			staged:  " 1 file changed, 2 insertions(+)\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := []gittest.Call{{
				Args:   []string{"diff", "--shortstat"},
				Output: tt.unstaged,
			}}
			if tt.unstaged == "" {
				calls = append(calls, gittest.Call{
					Args:   []string{"diff", "--shortstat", "--staged"},
					Output: tt.staged,
				})
			}
			scenario := gittest.NewScenario(t, calls...)

			err := CheckWorkingTree(context.Background(), scenario.Client())
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckWorkingTree() error = %v, wantErr %v", err, tt.wantErr)
			}
			scenario.Verify()
		})
	}
}
