// internal/suite/events.go
package suite

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	json "github.com/json-iterator/go"
)

// Actions reported by go test -json.
const (
	ActionRun    = "run"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
)

// TestEvent is one line of go test -json output.
type TestEvent struct {
	Time    time.Time
	Action  string
	Package string
	Test    string
	Elapsed float64
	Output  string
}

// ParseEvent decodes a single JSON line.
func ParseEvent(line []byte) (TestEvent, error) {
	var ev TestEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return ev, err
	}
	return ev, nil
}

// Summary tallies the results of a run.
type Summary struct {
	Passed  int
	Failed  int
	Skipped int

	// Failures lists failed tests as package.Test.
	Failures []string
	// PackageFailures lists packages that failed without a failing test,
	// typically build errors or panics in TestMain.
	PackageFailures []string

	Elapsed time.Duration

	failedTests map[string]bool
}

// Add folds ev into the tally.
func (s *Summary) Add(ev TestEvent) {
	if ev.Test == "" {
		if ev.Action == ActionFail && !s.packageHasFailedTest(ev.Package) {
			s.PackageFailures = append(s.PackageFailures, ev.Package)
		}
		if ev.Action == ActionPass || ev.Action == ActionFail {
			s.Elapsed += time.Duration(ev.Elapsed * float64(time.Second))
		}
		return
	}

	switch ev.Action {
	case ActionPass:
		s.Passed++
	case ActionSkip:
		s.Skipped++
	case ActionFail:
		s.Failed++
		if s.failedTests == nil {
			s.failedTests = map[string]bool{}
		}
		s.failedTests[ev.Package] = true
		s.Failures = append(s.Failures, qualified(ev.Package, ev.Test))
	}
}

func (s *Summary) packageHasFailedTest(pkg string) bool {
	return s.failedTests[pkg]
}

// Total is the number of finished tests, subtests included.
func (s *Summary) Total() int { return s.Passed + s.Failed + s.Skipped }

// OK reports a run with no failures of any kind.
func (s *Summary) OK() bool { return s.Failed == 0 && len(s.PackageFailures) == 0 }

// Print writes a colored summary to w.
func (s *Summary) Print(w io.Writer) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s  %s  %s  (total %d, %s)\n",
		color.GreenString("PASSED %d", s.Passed),
		color.RedString("FAILED %d", s.Failed),
		color.YellowString("SKIPPED %d", s.Skipped),
		s.Total(), s.Elapsed.Round(time.Millisecond))

	failures := append([]string(nil), s.Failures...)
	sort.Strings(failures)
	for _, f := range failures {
		fmt.Fprintf(w, "  %s %s\n", color.RedString("--- FAIL:"), f)
	}
	for _, p := range s.PackageFailures {
		fmt.Fprintf(w, "  %s %s\n", color.RedString("FAIL package:"), p)
	}
	fmt.Fprintln(w, rule)
}

func qualified(pkg, test string) string {
	if pkg == "" {
		return test
	}
	return pkg + "." + test
}
