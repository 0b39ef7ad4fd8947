// internal/suite/runner.go
package suite

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/autologin/internal/config"
)

// DefaultWorkers is the worker count used when parallel is requested
// without one.
const DefaultWorkers = 4

const maxEventLine = 4 * 1024 * 1024

// Runner executes suite selections through go test.
type Runner struct {
	doc    *Document
	cfg    config.Interface
	logger *zap.Logger
	exec   Executor
	fs     afero.Fs
	out    io.Writer
	errOut io.Writer
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

func WithExecutor(e Executor) RunnerOption { return func(r *Runner) { r.exec = e } }

// WithOutput redirects test output and the summary.
func WithOutput(out, errOut io.Writer) RunnerOption {
	return func(r *Runner) { r.out, r.errOut = out, errOut }
}

// WithFs sets the filesystem the JSON report is written to.
func WithFs(fs afero.Fs) RunnerOption { return func(r *Runner) { r.fs = fs } }

func NewRunner(doc *Document, cfg config.Interface, logger *zap.Logger, opts ...RunnerOption) *Runner {
	if doc == nil {
		doc = &Document{Parameters: map[string]string{}}
	}
	r := &Runner{
		doc:    doc,
		cfg:    cfg,
		logger: logger.Named("suite_runner"),
		exec:   ExecExecutor{},
		fs:     afero.NewOsFs(),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Document is the suite document the runner works from.
func (r *Runner) Document() *Document { return r.doc }

// SuiteInfo looks up a test entry by name.
func (r *Runner) SuiteInfo(name string) (Descriptor, bool) {
	return r.doc.Find(name)
}

// List prints every test entry as a table and returns exit code 0.
func (r *Runner) List(w io.Writer) int {
	r.logger.Info("Available test suites", zap.Int("count", len(r.doc.Tests)))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	if r.doc.Name != "" {
		t.SetTitle(r.doc.Name)
	}
	t.AppendHeader(table.Row{"#", "Suite", "Status", "Groups", "Classes", "Methods"})
	for i, d := range r.doc.Tests {
		status := "ENABLED"
		if !d.Enabled {
			status = "DISABLED"
		}
		t.AppendRow(table.Row{i + 1, d.Name, status, joinOrNone(d.Groups), joinOrNone(d.Classes), len(d.Methods)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
	return 0
}

// RunSuite runs the test entry called name, or every enabled entry when name
// is empty. An unknown name is logged and returns 1 without starting go test.
func (r *Runner) RunSuite(ctx context.Context, name string) int {
	var tests []Descriptor
	if name == "" {
		tests = r.doc.Enabled()
		if len(tests) == 0 {
			r.logger.Error("No enabled suites to run")
			return 1
		}
	} else {
		d, ok := r.doc.Find(name)
		if !ok {
			r.logger.Error("Suite not found", zap.String("suite", name))
			return 1
		}
		if !d.Enabled {
			r.logger.Warn("Running a suite marked disabled", zap.String("suite", name))
		}
		tests = []Descriptor{d}
	}

	plan := PlanFor(NewPlan(r.cfg.Suite()), r.doc, tests...)
	r.logger.Info("Running suites", zap.Int("count", len(tests)), zap.String("suite", name))
	return r.execute(ctx, plan)
}

// RunGroup runs every case tagged with group.
func (r *Runner) RunGroup(ctx context.Context, group string) int {
	if strings.TrimSpace(group) == "" {
		r.logger.Error("Specify group name")
		return 1
	}
	plan := PlanFor(NewPlan(r.cfg.Suite()), r.doc)
	plan.Groups = []string{group}
	r.logger.Info("Running tests in group", zap.String("group", group))
	return r.execute(ctx, plan)
}

// RunParallel runs everything with the given number of workers. Counts
// below one are raised to one.
func (r *Runner) RunParallel(ctx context.Context, workers int) int {
	if workers < 1 {
		workers = 1
	}
	plan := PlanFor(NewPlan(r.cfg.Suite()), r.doc)
	plan.Workers = workers
	r.logger.Info("Running tests in parallel", zap.Int("workers", workers))
	return r.execute(ctx, plan)
}

// Command renders the go test invocation for plan.
func (r *Runner) Command(plan Plan) Command {
	sc := r.cfg.Suite()
	return Command{
		Name: sc.GoBinary,
		Args: BuildArgs(plan),
		Env:  plan.Env(),
		Dir:  sc.WorkDir,
	}
}

func (r *Runner) execute(ctx context.Context, plan Plan) int {
	cmd := r.Command(plan)
	r.logger.Info("Command",
		zap.String("command", cmd.Name+" "+strings.Join(cmd.Args, " ")),
		zap.Strings("env", cmd.Env),
		zap.String("dir", cmd.Dir),
	)

	report, closeReport := r.openReport()
	defer closeReport()

	var summary Summary
	pr, pw := io.Pipe()

	var code int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		code, err = r.exec.Execute(gctx, cmd, pw, r.errOut)
		pw.CloseWithError(err)
		return err
	})
	g.Go(func() error {
		err := r.consume(pr, report, &summary)
		// Keep the writer from blocking if consume bailed out early.
		_, _ = io.Copy(io.Discard, pr)
		return err
	})

	if err := g.Wait(); err != nil {
		r.logger.Error("Error running test suite", zap.Error(err))
		if code == 0 {
			code = 1
		}
	}

	summary.Print(r.out)
	r.logger.Info("Run finished",
		zap.Int("exit_code", code),
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return code
}

// consume reads the JSON event stream, mirroring raw lines into report and
// test output into r.out.
func (r *Runner) consume(src io.Reader, report io.Writer, summary *Summary) error {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventLine)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if report != nil {
			if _, err := fmt.Fprintf(report, "%s\n", line); err != nil {
				r.logger.Warn("Failed to write report line", zap.Error(err))
				report = nil
			}
		}

		ev, err := ParseEvent(line)
		if err != nil {
			// Not an event; go test prints some build failures as plain text.
			fmt.Fprintln(r.out, string(line))
			continue
		}
		if ev.Action == ActionOutput {
			fmt.Fprint(r.out, ev.Output)
		}
		summary.Add(ev)
	}
	return sc.Err()
}

// openReport creates the JSON report file. Failure only costs the report.
func (r *Runner) openReport() (io.Writer, func()) {
	name := r.cfg.Suite().ReportFile
	dir := r.cfg.Reporting().ReportPath
	if name == "" || dir == "" {
		return nil, func() {}
	}
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		r.logger.Warn("Failed to create report directory", zap.String("dir", dir), zap.Error(err))
		return nil, func() {}
	}
	path := filepath.Join(dir, name)
	f, err := r.fs.Create(path)
	if err != nil {
		r.logger.Warn("Failed to create report file", zap.String("path", path), zap.Error(err))
		return nil, func() {}
	}
	r.logger.Info("Writing JSON report", zap.String("path", path))
	return f, func() {
		if err := f.Close(); err != nil {
			r.logger.Warn("Failed to close report file", zap.Error(err))
		}
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
