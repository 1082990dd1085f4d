//go:build !nogpu

package gpu

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Backend diagnostics, silent until tilegrid.SetLogger reaches
// Device.SetLogger:
//
//	Info  device opened or shared from a provider
//	Debug buffer uploads, bundle assembly, frame submission
//	Warn  draws ignored because of a foreign bundle or a finished frame

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

var (
	silent    = slog.New(discardHandler{})
	activeLog atomic.Pointer[slog.Logger]
)

func init() { activeLog.Store(silent) }

// slogger returns the logger backend code writes to.
func slogger() *slog.Logger { return activeLog.Load() }

// setLogger installs l for the backend, or the silent logger when l is nil.
func setLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	activeLog.Store(l)
}
