package annotate

import (
	"go.uber.org/zap"
)

// HookKind says when a lifecycle hook is meant to run.
type HookKind int

const (
	HookBeforeMethod HookKind = iota
	HookAfterMethod
	HookBeforeClass
	HookAfterClass
)

func (k HookKind) String() string {
	switch k {
	case HookBeforeMethod:
		return "before_method"
	case HookAfterMethod:
		return "after_method"
	case HookBeforeClass:
		return "before_class"
	case HookAfterClass:
		return "after_class"
	default:
		return "unknown"
	}
}

// HookOption adjusts a hook declaration.
type HookOption func(*hookSettings)

type hookSettings struct {
	alwaysRun bool
}

// AlwaysRun marks the hook as one that should run even when the test it
// surrounds was not selected.
func AlwaysRun(b bool) HookOption {
	return func(s *hookSettings) { s.alwaysRun = b }
}

// Hook is a lifecycle function. Hooks never touch the registry and calling one
// always runs it.
type Hook[A, R any] struct {
	a         *Annotator
	kind      HookKind
	name      string
	alwaysRun bool
	fn        func(A) R
}

func newHook[A, R any](a *Annotator, kind HookKind, fn func(A) R, opts []HookOption) *Hook[A, R] {
	var s hookSettings
	for _, opt := range opts {
		opt(&s)
	}
	return &Hook[A, R]{a: a, kind: kind, name: funcName(fn), alwaysRun: s.alwaysRun, fn: fn}
}

func BeforeMethod[A, R any](a *Annotator, fn func(A) R, opts ...HookOption) *Hook[A, R] {
	return newHook(a, HookBeforeMethod, fn, opts)
}

func AfterMethod[A, R any](a *Annotator, fn func(A) R, opts ...HookOption) *Hook[A, R] {
	return newHook(a, HookAfterMethod, fn, opts)
}

func BeforeClass[A, R any](a *Annotator, fn func(A) R, opts ...HookOption) *Hook[A, R] {
	return newHook(a, HookBeforeClass, fn, opts)
}

func AfterClass[A, R any](a *Annotator, fn func(A) R, opts ...HookOption) *Hook[A, R] {
	return newHook(a, HookAfterClass, fn, opts)
}

// Call logs at debug level and runs the hook.
func (h *Hook[A, R]) Call(arg A) R {
	h.a.logger.Debug("Running hook", zap.Stringer("kind", h.kind), zap.String("hook", h.name))
	return h.fn(arg)
}

func (h *Hook[A, R]) Kind() HookKind  { return h.kind }
func (h *Hook[A, R]) AlwaysRun() bool { return h.alwaysRun }
func (h *Hook[A, R]) Name() string    { return h.name }
func (h *Hook[A, R]) Func() func(A) R { return h.fn }
