package tilegrid

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
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

// boundDevice is the device most recently attached to a Renderer. It
// receives logger updates so that backend diagnostics follow SetLogger.
var (
	boundMu     sync.RWMutex
	boundDevice Device
)

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for tilegrid and its GPU backend.
// By default, tilegrid produces no log output. Call SetLogger to enable logging.
//
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by tilegrid:
//   - [slog.LevelDebug]: buffer sizes, pipeline state, per-frame diagnostics
//   - [slog.LevelInfo]: lifecycle events (adapter selected, bundle assembled)
//   - [slog.LevelWarn]: non-fatal issues (resource release errors)
//
// Example:
//
//	tilegrid.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	boundMu.RLock()
	d := boundDevice
	boundMu.RUnlock()
	if d != nil {
		propagateLogger(d, l)
	}
}

// Logger returns the current logger used by tilegrid.
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// bindDevice records d as the device that receives later logger updates.
// NewRenderer calls it only once the device holds a live bundle.
func bindDevice(d Device) {
	boundMu.Lock()
	boundDevice = d
	boundMu.Unlock()
}

// propagateLogger passes the logger to a device if it implements loggerSetter.
func propagateLogger(d Device, l *slog.Logger) {
	if ls, ok := d.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
