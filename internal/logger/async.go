package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer allows flushing and stopping the async handler.
type Closer interface {
	Close()
}

// nopCloser is a no-op Closer for synchronous mode.
type nopCloser struct{}

func (nopCloser) Close() {}

// AsyncHandler decouples log emission from log writing so a burst of
// session output never stalls supervisor goroutines on a slow sink. When
// the queue is full the record is dropped and counted instead of blocking
// the caller.
type AsyncHandler struct {
	inner slog.Handler
	core  *asyncCore
}

// asyncCore is shared by every WithAttrs/WithGroup derivation of one
// handler, so all of them feed the same queue and worker set.
type asyncCore struct {
	queue     chan queuedRecord
	wg        sync.WaitGroup
	dropped   atomic.Int64
	closeOnce sync.Once
}

// queuedRecord carries the record together with the exact handler it was
// enqueued through, keeping derived attrs and groups attached when a
// worker finally writes it.
type queuedRecord struct {
	sink slog.Handler
	rec  slog.Record
}

// NewAsyncHandler creates an AsyncHandler with the given queue capacity
// and worker count. Values below one are clamped to one.
func NewAsyncHandler(inner slog.Handler, queueSize, workers int) *AsyncHandler {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	core := &asyncCore{queue: make(chan queuedRecord, queueSize)}
	for range workers {
		core.wg.Add(1)
		go core.pump()
	}
	return &AsyncHandler{inner: inner, core: core}
}

func (c *asyncCore) pump() {
	defer c.wg.Done()
	for q := range c.queue {
		_ = q.sink.Handle(context.Background(), q.rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record. Drops if the queue is full.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.core.queue <- queuedRecord{sink: h.inner, rec: rec}:
	default:
		h.core.dropped.Add(1)
	}
	return nil
}

// WithAttrs derives a handler that shares the queue and workers.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), core: h.core}
}

// WithGroup derives a handler that shares the queue and workers.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), core: h.core}
}

// DroppedCount returns the number of dropped records.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.core.dropped.Load()
}

// Close drains the queue and stops the workers. Safe to call more than
// once.
func (h *AsyncHandler) Close() {
	h.core.closeOnce.Do(func() {
		close(h.core.queue)
		h.core.wg.Wait()
	})
}
