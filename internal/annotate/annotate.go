// Package annotate attaches TestNG style metadata to test functions.
//
// Each declaration wraps a function and hands back a value with the same call
// shape. Test records metadata in a registry and gates invocation on the
// enabled flag; the hook, data provider and skip wrappers only carry metadata
// and log.
package annotate

import (
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/xkilldash9x/autologin/internal/registry"
	"go.uber.org/zap"
)

// Annotator binds declarations to the registry they record into and the
// logger their wrappers write to.
type Annotator struct {
	reg    *registry.Registry
	logger *zap.Logger
}

// New returns an Annotator. A nil logger discards output.
func New(reg *registry.Registry, logger *zap.Logger) *Annotator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Annotator{reg: reg, logger: logger.Named("annotate")}
}

// Registry is the registry declarations are written to.
func (a *Annotator) Registry() *registry.Registry { return a.reg }

// Option adjusts the metadata recorded by Test.
type Option func(*registry.TestRecord)

// ID sets the registry key. Without it the wrapped function's name is used.
func ID(identifier string) Option {
	return func(r *registry.TestRecord) { r.Identifier = identifier }
}

// Name sets the display name.
func Name(name string) Option {
	return func(r *registry.TestRecord) { r.DisplayName = name }
}

func Description(desc string) Option {
	return func(r *registry.TestRecord) { r.Description = desc }
}

func Priority(p int) Option {
	return func(r *registry.TestRecord) { r.Priority = p }
}

func Groups(groups ...string) Option {
	return func(r *registry.TestRecord) { r.Groups = append(r.Groups, groups...) }
}

// Enabled controls whether Call runs the wrapped function at all.
func Enabled(enabled bool) Option {
	return func(r *registry.TestRecord) { r.Enabled = enabled }
}

// Disabled is Enabled(false).
func Disabled() Option { return Enabled(false) }

// Timeout is recorded only. Nothing enforces it.
func Timeout(d time.Duration) Option {
	return func(r *registry.TestRecord) { r.TimeoutMillis = int(d / time.Millisecond) }
}

func TimeoutMillis(ms int) Option {
	return func(r *registry.TestRecord) { r.TimeoutMillis = ms }
}

// DependsOn is recorded only. Nothing orders or enforces it.
func DependsOn(identifiers ...string) Option {
	return func(r *registry.TestRecord) { r.DependsOn = append(r.DependsOn, identifiers...) }
}

// Case is a function declared as a test.
type Case[A, R any] struct {
	a      *Annotator
	record registry.TestRecord
	fn     func(A) R
}

// Test declares fn as a test case and writes its record into the annotator's
// registry immediately. A later declaration with the same identifier replaces
// the record.
func Test[A, R any](a *Annotator, fn func(A) R, opts ...Option) *Case[A, R] {
	rec := registry.NewRecord("")
	rec.DisplayName = ""
	for _, opt := range opts {
		opt(&rec)
	}
	if rec.Identifier == "" {
		rec.Identifier = funcName(fn)
	}
	if rec.DisplayName == "" {
		rec.DisplayName = rec.Identifier
	}

	a.reg.Register(rec.Identifier, rec)
	return &Case[A, R]{a: a, record: rec, fn: fn}
}

// Call invokes the test. A disabled test logs a warning and returns the zero R
// without running. Panics and errors from the function pass through untouched.
func (c *Case[A, R]) Call(arg A) R {
	if !c.record.Enabled {
		c.a.logger.Warn("Test is disabled", zap.String("test", c.record.Identifier))
		var zero R
		return zero
	}
	c.a.logger.Info("Running", zap.String("test", c.record.Label()))
	return c.fn(arg)
}

// Record is the metadata captured at declaration time.
func (c *Case[A, R]) Record() registry.TestRecord { return c.record }

// Func is the undecorated function.
func (c *Case[A, R]) Func() func(A) R { return c.fn }

// Skipped is a function that is never run.
type Skipped[A, R any] struct {
	a      *Annotator
	reason string
	fn     func(A) R
}

// Skip wraps fn so that calling it only logs reason. This holds whichever way
// Skip and Test are nested.
func Skip[A, R any](a *Annotator, reason string, fn func(A) R) *Skipped[A, R] {
	return &Skipped[A, R]{a: a, reason: reason, fn: fn}
}

// Call logs the skip reason and returns the zero R.
func (s *Skipped[A, R]) Call(A) R {
	s.a.logger.Warn("Test skipped", zap.String("reason", s.reason))
	var zero R
	return zero
}

func (s *Skipped[A, R]) Reason() string { return s.reason }

func (s *Skipped[A, R]) Func() func(A) R { return s.fn }

// Provided pairs a function with the rows it is meant to be run against.
type Provided[A, D, R any] struct {
	rows []D
	fn   func(A, D) R
}

// DataProvider attaches rows to fn. Calls pass straight through; iterating the
// rows is left to the caller or to RunProvided.
func DataProvider[A, D, R any](a *Annotator, rows []D, fn func(A, D) R) *Provided[A, D, R] {
	a.logger.Debug("Data provider attached", zap.String("func", funcName(fn)), zap.Int("rows", len(rows)))
	return &Provided[A, D, R]{rows: append([]D(nil), rows...), fn: fn}
}

// Rows returns a copy of the attached rows.
func (p *Provided[A, D, R]) Rows() []D { return append([]D(nil), p.rows...) }

func (p *Provided[A, D, R]) Call(arg A, row D) R { return p.fn(arg, row) }

// funcName extracts the bare function name from its symbol, e.g.
// "github.com/acme/e2e.testValidLogin" gives "testValidLogin".
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
