package stress

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Sink receives lifecycle events from a Pool and its workers. Worker events are
// delivered from the worker's own thread, so implementations must be safe for
// concurrent use.
type Sink interface {
	Initializing(workers int)
	WorkerSpawned(index, threadID int)
	WorkerShutdown(index, threadID int)
	LoadStarted(seconds int)
	LoadTick(elapsed int)
	LoadFinished(completed bool)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Initializing(int)        {}
func (NopSink) WorkerSpawned(int, int)  {}
func (NopSink) WorkerShutdown(int, int) {}
func (NopSink) LoadStarted(int)         {}
func (NopSink) LoadTick(int)            {}
func (NopSink) LoadFinished(bool)       {}

type teeSink []Sink

// Tee fans events out to every non-nil sink in order.
//
//nolint:ireturn // callers only need the Sink surface
func Tee(sinks ...Sink) Sink {
	filtered := make(teeSink, 0, len(sinks))

	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}

	return filtered
}

func (t teeSink) Initializing(workers int) {
	for _, sink := range t {
		sink.Initializing(workers)
	}
}

func (t teeSink) WorkerSpawned(index, threadID int) {
	for _, sink := range t {
		sink.WorkerSpawned(index, threadID)
	}
}

func (t teeSink) WorkerShutdown(index, threadID int) {
	for _, sink := range t {
		sink.WorkerShutdown(index, threadID)
	}
}

func (t teeSink) LoadStarted(seconds int) {
	for _, sink := range t {
		sink.LoadStarted(seconds)
	}
}

func (t teeSink) LoadTick(elapsed int) {
	for _, sink := range t {
		sink.LoadTick(elapsed)
	}
}

func (t teeSink) LoadFinished(completed bool) {
	for _, sink := range t {
		sink.LoadFinished(completed)
	}
}

// ConsoleSink renders the human-readable progress output.
type ConsoleSink struct {
	mu  sync.Mutex
	dst io.Writer
}

// NewConsoleSink writes progress lines to dst.
func NewConsoleSink(dst io.Writer) *ConsoleSink {
	return &ConsoleSink{dst: dst}
}

func (c *ConsoleSink) Initializing(workers int) {
	c.printf("Initializing %d workers\n", workers)
}

func (c *ConsoleSink) WorkerSpawned(_, threadID int) {
	c.printf("[Thread %d] spawned\n", threadID)
}

func (c *ConsoleSink) WorkerShutdown(_, threadID int) {
	c.printf("[Thread %d] shutdown\n", threadID)
}

func (c *ConsoleSink) LoadStarted(seconds int) {
	c.printf("Loading %d seconds", seconds)
}

func (c *ConsoleSink) LoadTick(int) {
	c.printf(".")
}

func (c *ConsoleSink) LoadFinished(completed bool) {
	if completed {
		c.printf("Done\n")

		return
	}

	c.printf("Interrupted\n")
}

func (c *ConsoleSink) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Console output carries no contract; write failures are ignored.
	_, _ = fmt.Fprintf(c.dst, format, args...)
}

// LogSink reports lifecycle events as structured log entries. Per-worker and
// per-tick events are logged at debug level.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wraps logger. A nil logger discards events.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LogSink{logger: logger}
}

func (l *LogSink) Initializing(workers int) {
	l.logger.Info("initializing workers", zap.Int("workers", workers))
}

func (l *LogSink) WorkerSpawned(index, threadID int) {
	l.logger.Debug("worker spawned", zap.Int("worker", index), zap.Int("threadID", threadID))
}

func (l *LogSink) WorkerShutdown(index, threadID int) {
	l.logger.Debug("worker shutdown", zap.Int("worker", index), zap.Int("threadID", threadID))
}

func (l *LogSink) LoadStarted(seconds int) {
	l.logger.Info("load started", zap.Int("durationSeconds", seconds))
}

func (l *LogSink) LoadTick(elapsed int) {
	l.logger.Debug("load progress", zap.Int("elapsedSeconds", elapsed))
}

func (l *LogSink) LoadFinished(completed bool) {
	l.logger.Info("load finished", zap.Bool("completed", completed))
}
