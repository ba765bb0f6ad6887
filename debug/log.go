package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var (
	mu      sync.Mutex
	enabled atomic.Bool
	logger  = newLogger(io.Discard)
	sink    *asyncWriter
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return l
}

// DefaultPath returns ~/.config/apc-sequence/debug.log
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "apc-sequence", "debug.log")
}

// Enable starts debug logging to DefaultPath
func Enable() error {
	return EnableFile(DefaultPath())
}

// EnableFile starts debug logging to path (truncated)
func EnableFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled.Load() {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	sink = newAsyncWriter(f, 1024)
	logger = newLogger(sink)
	enabled.Store(true)

	logger.WithField("category", "debug").Info("=== Debug logging started ===")
	return nil
}

// EnableWriter logs to w synchronously (tests, stderr)
func EnableWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
	enabled.Store(true)
}

// Disable stops debug logging and flushes pending lines
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	enabled.Store(false)
	logger = newLogger(io.Discard)
	if sink != nil {
		sink.Close()
		sink = nil
	}
}

// Enabled reports whether logging is on
func Enabled() bool {
	return enabled.Load()
}

// Log writes a message to the debug log. Safe to call from the real-time
// cycle: file output never blocks, lines are dropped when the writer lags.
func Log(category, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	logger.WithField("category", category).Infof(format, args...)
}

// Warn logs a message at warning level
func Warn(category, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	logger.WithField("category", category).Warnf(format, args...)
}

var counters = make(map[string]int)

// LogEvery logs only every N calls (use for high-frequency events)
func LogEvery(n int, category, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

// asyncWriter hands lines to a goroutine that owns the file
type asyncWriter struct {
	lines   chan []byte
	done    chan struct{}
	out     io.WriteCloser
	dropped atomic.Uint64
}

func newAsyncWriter(out io.WriteCloser, size int) *asyncWriter {
	w := &asyncWriter{
		lines: make(chan []byte, size),
		done:  make(chan struct{}),
		out:   out,
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for line := range w.lines {
		w.out.Write(line)
	}
	if n := w.dropped.Load(); n > 0 {
		fmt.Fprintf(w.out, "dropped %d log lines\n", n)
	}
	w.out.Close()
}

func (w *asyncWriter) Write(p []byte) (int, error) {
	line := append([]byte(nil), p...)
	select {
	case w.lines <- line:
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

func (w *asyncWriter) Close() {
	close(w.lines)
	<-w.done
}
