// internal/screenshot/screenshot.go
package screenshot

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultKeep is how many screenshots Cleanup retains when asked for a
// non-positive count.
const DefaultKeep = 50

const (
	captureStamp = "20060102_150405.000"
	failureStamp = "20060102_150405"
)

var nameReplacer = strings.NewReplacer("/", "_", `\`, "_", " ", "_", ":", "_")

// Shooter is anything that can photograph its current page. browser.Driver
// satisfies it.
type Shooter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Handler writes PNG captures into a single directory.
type Handler struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// New prepares dir on fs and returns a handler writing into it.
func New(fs afero.Fs, dir string, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory %s: %w", dir, err)
	}
	h := &Handler{fs: fs, dir: dir, logger: logger.Named("screenshot"), now: time.Now}
	h.logger.Debug("Screenshot directory ready", zap.String("dir", dir))
	return h, nil
}

// Dir is the directory captures are written to.
func (h *Handler) Dir() string { return h.dir }

// Capture saves the current page and returns the file path. With no
// filename the name is derived from testName (or "screenshot") and a
// millisecond timestamp.
func (h *Handler) Capture(ctx context.Context, s Shooter, filename, testName string) (string, error) {
	if filename == "" {
		stamp := strings.Replace(h.now().Format(captureStamp), ".", "_", 1)
		prefix := "screenshot"
		if testName != "" {
			prefix = SanitizeName(testName)
		}
		filename = prefix + "_" + stamp + ".png"
	}
	path := filepath.Join(h.dir, filename)

	buf, err := s.Screenshot(ctx)
	if err != nil {
		h.logger.Error("Error capturing screenshot", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	if err := afero.WriteFile(h.fs, path, buf, 0o644); err != nil {
		h.logger.Error("Error writing screenshot", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("write screenshot %s: %w", path, err)
	}

	h.logger.Info("Screenshot saved", zap.String("path", path), zap.Int("bytes", len(buf)))
	return path, nil
}

// CaptureOnFailure saves a FAILURE_<test>_<timestamp>.png capture.
func (h *Handler) CaptureOnFailure(ctx context.Context, s Shooter, testName string) (string, error) {
	filename := fmt.Sprintf("FAILURE_%s_%s.png", SanitizeName(testName), h.now().Format(failureStamp))
	h.logger.Warn("Test failed, capturing screenshot", zap.String("test", testName))
	return h.Capture(ctx, s, filename, "")
}

// Latest returns the most recently modified capture, or "" when there is
// none.
func (h *Handler) Latest() string {
	shots, err := h.list()
	if err != nil {
		h.logger.Error("Error getting latest screenshot", zap.Error(err))
		return ""
	}
	if len(shots) == 0 {
		return ""
	}
	return filepath.Join(h.dir, shots[0])
}

// Cleanup deletes all but the newest keep captures and reports how many
// went. Failures are logged, never returned.
func (h *Handler) Cleanup(keep int) int {
	if keep <= 0 {
		keep = DefaultKeep
	}
	shots, err := h.list()
	if err != nil {
		h.logger.Error("Error cleaning up screenshots", zap.Error(err))
		return 0
	}
	if len(shots) <= keep {
		return 0
	}

	removed := 0
	for _, name := range shots[keep:] {
		path := filepath.Join(h.dir, name)
		if err := h.fs.Remove(path); err != nil {
			h.logger.Error("Error deleting screenshot", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
		h.logger.Debug("Deleted old screenshot", zap.String("path", path))
	}
	return removed
}

// list returns the .png names in dir, newest first.
func (h *Handler) list() ([]string, error) {
	infos, err := afero.ReadDir(h.fs, h.dir)
	if err != nil {
		return nil, err
	}

	type entry struct {
		name string
		mod  time.Time
	}
	var entries []entry
	for _, fi := range infos {
		if fi.IsDir() || !strings.EqualFold(filepath.Ext(fi.Name()), ".png") {
			continue
		}
		entries = append(entries, entry{name: fi.Name(), mod: fi.ModTime()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].mod.Equal(entries[j].mod) {
			return entries[i].mod.After(entries[j].mod)
		}
		return entries[i].name > entries[j].name
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names, nil
}

// SanitizeName makes a test name safe to use in a file name. Subtest
// separators become underscores.
func SanitizeName(name string) string {
	return nameReplacer.Replace(name)
}
