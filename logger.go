package texsource

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

// attached holds the devices of live environments so that SetLogger
// reaches them too.
var (
	attachedMu sync.Mutex
	attached   = make(map[Device]int)
)

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for texsource, its backends and its
// platform adapters. By default texsource produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the silent
// default.
//
// Log levels used by texsource:
//   - [slog.LevelDebug]: per-frame diagnostics (dispatch sizes, binding growth)
//   - [slog.LevelInfo]: lifecycle events (device opened, video started)
//   - [slog.LevelWarn]: dropped frames, release errors, backend fallback
//   - [slog.LevelError]: a host without a source, pipeline errors
//
// Example:
//
//	texsource.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	attachedMu.Lock()
	devices := make([]Device, 0, len(attached))
	for d := range attached {
		devices = append(devices, d)
	}
	attachedMu.Unlock()
	for _, d := range devices {
		propagateLogger(d, l)
	}
}

// Logger returns the current logger used by texsource.
// Sub-packages call this to share the same logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(d Device, l *slog.Logger) {
	if ls, ok := d.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

// attachDevice hands the current logger to d and keeps it up to date
// until detachDevice is called the same number of times.
func attachDevice(d Device) {
	attachedMu.Lock()
	attached[d]++
	attachedMu.Unlock()
	propagateLogger(d, Logger())
}

func detachDevice(d Device) {
	attachedMu.Lock()
	defer attachedMu.Unlock()
	if n := attached[d]; n > 1 {
		attached[d] = n - 1
		return
	}
	delete(attached, d)
}
