// internal/suite/plan.go
package suite

import (
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xkilldash9x/autologin/internal/annotate"
	"github.com/xkilldash9x/autologin/internal/config"
)

// Plan is everything needed to launch one go test run.
type Plan struct {
	Packages []string
	Tags     []string

	// Tests are top-level test functions; Subtests are case identifiers
	// under them. Either may be empty to mean "all".
	Tests    []string
	Subtests []string

	Groups         []string
	ExcludedGroups []string

	// Workers > 0 requests parallel execution.
	Workers int
	Timeout time.Duration

	// Params become AUTOLOGIN_<KEY> variables in the child, overriding its
	// configuration.
	Params map[string]string
}

// NewPlan starts a plan from the suite section of the configuration.
func NewPlan(cfg config.SuiteConfig) Plan {
	return Plan{
		Packages: append([]string(nil), cfg.Packages...),
		Tags:     append([]string(nil), cfg.BuildTags...),
		Timeout:  cfg.Timeout,
		Params:   map[string]string{},
	}
}

// PlanFor narrows base to the given tests of doc. Groups and classes are
// unioned across tests. A class restriction only applies when every test
// names its classes, and a method restriction only when every named class
// lists methods; otherwise the wider selection wins.
func PlanFor(base Plan, doc *Document, tests ...Descriptor) Plan {
	p := base
	p.Groups = slices.Clone(base.Groups)
	p.ExcludedGroups = slices.Clone(base.ExcludedGroups)
	p.Params = map[string]string{}
	for k, v := range base.Params {
		p.Params[k] = v
	}
	for k, v := range doc.Parameters {
		p.Params[k] = v
	}

	restrictClasses, restrictMethods := len(tests) > 0, len(tests) > 0
	var classes, methods []string
	for _, t := range tests {
		p.Groups = appendUnique(p.Groups, t.Groups...)
		p.ExcludedGroups = appendUnique(p.ExcludedGroups, t.ExcludedGroups...)
		for k, v := range t.Parameters {
			p.Params[k] = v
		}

		if len(t.Classes) == 0 {
			restrictClasses, restrictMethods = false, false
			continue
		}
		classes = appendUnique(classes, t.Classes...)
		for _, c := range t.Classes {
			ms := t.ClassMethods(c)
			if len(ms) == 0 {
				restrictMethods = false
			}
			methods = appendUnique(methods, ms...)
		}
	}

	if restrictClasses {
		p.Tests = classes
		if restrictMethods {
			p.Subtests = methods
		}
	}
	if doc.ThreadCount > 0 && doc.Parallel != "" && !strings.EqualFold(doc.Parallel, "none") && !strings.EqualFold(doc.Parallel, "false") {
		p.Workers = doc.ThreadCount
	}
	return p
}

// RunPattern renders the -run expression, or "" when everything runs.
func (p Plan) RunPattern() string {
	if len(p.Tests) == 0 {
		return ""
	}
	pattern := anchored(p.Tests)
	if len(p.Subtests) > 0 {
		pattern += "/" + anchored(p.Subtests)
	}
	return pattern
}

func anchored(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		// go test rewrites spaces in subtest names to underscores.
		quoted[i] = regexp.QuoteMeta(strings.ReplaceAll(n, " ", "_"))
	}
	return "^(" + strings.Join(quoted, "|") + ")$"
}

// BuildArgs renders the go test arguments for p, binary name excluded.
func BuildArgs(p Plan) []string {
	args := []string{"test", "-json", "-count", "1"}
	if len(p.Tags) > 0 {
		args = append(args, "-tags", strings.Join(p.Tags, ","))
	}
	if pattern := p.RunPattern(); pattern != "" {
		args = append(args, "-run", pattern)
	}
	if p.Workers > 0 {
		n := strconv.Itoa(p.Workers)
		args = append(args, "-p", n, "-parallel", n)
	}
	if p.Timeout > 0 {
		args = append(args, "-timeout", p.Timeout.String())
	}
	packages := p.Packages
	if len(packages) == 0 {
		packages = []string{"./..."}
	}
	return append(args, packages...)
}

// Env lists the variables the child process needs on top of the inherited
// environment, sorted for stable output.
func (p Plan) Env() []string {
	var env []string
	if len(p.Groups) > 0 {
		env = append(env, annotate.GroupsEnv+"="+strings.Join(p.Groups, ","))
	}
	if len(p.ExcludedGroups) > 0 {
		env = append(env, annotate.ExcludedGroupsEnv+"="+strings.Join(p.ExcludedGroups, ","))
	}
	if p.Workers > 0 {
		env = append(env, annotate.ParallelEnv+"=1")
	}
	for k, v := range p.Params {
		env = append(env, EnvKey(k)+"="+v)
	}
	sort.Strings(env)
	return env
}

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_", " ", "_")

// EnvKey maps a configuration key to the variable that overrides it:
// browser.name becomes AUTOLOGIN_BROWSER_NAME.
func EnvKey(key string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(envKeyReplacer.Replace(strings.TrimSpace(key)))
}

func appendUnique(dst []string, items ...string) []string {
	for _, it := range items {
		if !slices.Contains(dst, it) {
			dst = append(dst, it)
		}
	}
	return dst
}
