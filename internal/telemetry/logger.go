// Package telemetry provides a small mutex-guarded slog.Handler wrapper,
// grounded on the pack's S/370 emulator logger (util/logger): a single
// writer shared by every subsystem, serialized so concurrent log calls
// from different goroutines never interleave mid-line.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// LockingHandler wraps a slog.Handler with a mutex so that log records
// produced concurrently by several goroutines sharing one logger are never
// interleaved.
type LockingHandler struct {
	mu   *sync.Mutex
	next slog.Handler
}

func NewLockingHandler(w io.Writer, opts *slog.HandlerOptions) *LockingHandler {
	return &LockingHandler{mu: &sync.Mutex{}, next: slog.NewTextHandler(w, opts)}
}

func (h *LockingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *LockingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.next.Handle(ctx, r)
}

func (h *LockingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LockingHandler{mu: h.mu, next: h.next.WithAttrs(attrs)}
}

func (h *LockingHandler) WithGroup(name string) slog.Handler {
	return &LockingHandler{mu: h.mu, next: h.next.WithGroup(name)}
}

// New builds a *slog.Logger over a LockingHandler writing to w at the
// given minimum level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewLockingHandler(w, &slog.HandlerOptions{Level: level}))
}
