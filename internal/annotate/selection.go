package annotate

import (
	"os"
	"slices"
	"strings"

	"github.com/xkilldash9x/autologin/internal/registry"
)

// Environment variables the suite bridge sets on the child test process.
const (
	// GroupsEnv holds a comma separated list of groups to run.
	GroupsEnv = "AUTOLOGIN_GROUPS"
	// ExcludedGroupsEnv holds a comma separated list of groups to leave out.
	ExcludedGroupsEnv = "AUTOLOGIN_EXCLUDED_GROUPS"
	// ParallelEnv, when non-empty, asks every case to run in parallel.
	ParallelEnv = "AUTOLOGIN_PARALLEL"
)

// Selection is the group filter applied by the host runner.
type Selection struct {
	Include []string
	Exclude []string
}

// SelectionFromEnv reads the filter written by the suite bridge.
func SelectionFromEnv() Selection {
	return Selection{
		Include: SplitList(os.Getenv(GroupsEnv)),
		Exclude: SplitList(os.Getenv(ExcludedGroupsEnv)),
	}
}

// Matches reports whether rec passes the filter. An empty include list lets
// every group through; an exclusion always wins.
func (s Selection) Matches(rec registry.TestRecord) bool {
	for _, g := range rec.Groups {
		if slices.Contains(s.Exclude, g) {
			return false
		}
	}
	if len(s.Include) == 0 {
		return true
	}
	for _, g := range s.Include {
		if rec.HasGroup(g) {
			return true
		}
	}
	return false
}

// ParallelRequested reports whether the bridge asked for parallel execution.
func ParallelRequested() bool {
	return os.Getenv(ParallelEnv) != ""
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
