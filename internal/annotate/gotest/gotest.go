// Package gotest runs annotated cases under the standard testing package.
//
// Selection by group uses the testing package's own skip so that filtered
// cases show up as SKIP in go test output.
package gotest

import (
	"strings"
	"testing"

	"github.com/xkilldash9x/autologin/internal/annotate"
)

type (
	// TestCase is a case whose body receives the subtest and reports failure
	// through its error.
	TestCase = annotate.Case[*testing.T, error]
	TestHook = annotate.Hook[*testing.T, error]
)

// Class groups cases with the hooks that surround them.
type Class struct {
	Name         string
	BeforeClass  []*TestHook
	AfterClass   []*TestHook
	BeforeMethod []*TestHook
	AfterMethod  []*TestHook
	Cases        []*TestCase
}

// Run executes the class inside t, normally the top-level test function
// named after the class. Before-class hooks run once and stop the class on
// error; after-class hooks run when every case has finished, parallel ones
// included.
func (c Class) Run(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		for _, h := range c.AfterClass {
			if err := h.Call(t); err != nil {
				t.Errorf("%s: %s hook %s failed: %v", c.Name, h.Kind(), h.Name(), err)
			}
		}
	})
	for _, h := range c.BeforeClass {
		if err := h.Call(t); err != nil {
			t.Fatalf("%s: %s hook %s failed: %v", c.Name, h.Kind(), h.Name(), err)
		}
	}
	for _, tc := range c.Cases {
		runCase(t, tc, c.BeforeMethod, c.AfterMethod)
	}
}

// RunCase executes a single case as a subtest of t. Subtests are named by
// the case identifier so suite files can select them with -run.
func RunCase(t *testing.T, tc *TestCase) {
	t.Helper()
	runCase(t, tc, nil, nil)
}

func runCase(t *testing.T, tc *TestCase, before, after []*TestHook) {
	rec := tc.Record()
	sel := annotate.SelectionFromEnv()

	t.Run(rec.Identifier, func(t *testing.T) {
		if !sel.Matches(rec) {
			runAlways(t, after)
			t.Skipf("groups %v not selected (include %s, exclude %s)",
				rec.Groups, strings.Join(sel.Include, ","), strings.Join(sel.Exclude, ","))
		}
		// A disabled case passes as a no-op; Call logs the warning.
		if !rec.Enabled {
			tc.Call(t)
			runAlways(t, after)
			return
		}
		if annotate.ParallelRequested() {
			t.Parallel()
		}

		t.Cleanup(func() {
			for _, h := range after {
				if err := h.Call(t); err != nil {
					t.Errorf("%s hook %s failed: %v", h.Kind(), h.Name(), err)
				}
			}
		})
		for _, h := range before {
			if err := h.Call(t); err != nil {
				t.Fatalf("%s hook %s failed: %v", h.Kind(), h.Name(), err)
			}
		}

		if err := tc.Call(t); err != nil {
			t.Fatalf("%s: %v", rec.Label(), err)
		}
	})
}

// runAlways runs the hooks flagged AlwaysRun for a case that did not execute.
func runAlways(t *testing.T, hooks []*TestHook) {
	for _, h := range hooks {
		if !h.AlwaysRun() {
			continue
		}
		if err := h.Call(t); err != nil {
			t.Errorf("%s hook %s failed: %v", h.Kind(), h.Name(), err)
		}
	}
}

// RunProvided runs fn once per row, each row as its own subtest named by
// name(row).
func RunProvided[D any](t *testing.T, p *annotate.Provided[*testing.T, D, error], name func(D) string) {
	t.Helper()
	for _, row := range p.Rows() {
		t.Run(name(row), func(t *testing.T) {
			if err := p.Call(t, row); err != nil {
				t.Fatal(err)
			}
		})
	}
}

// RunSkipped reports a skipped declaration as skipped in go test output.
func RunSkipped(t *testing.T, name string, s *annotate.Skipped[*testing.T, error]) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		s.Call(t)
		t.Skip(s.Reason())
	})
}
