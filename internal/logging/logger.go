package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/roadmap/internal/config"
)

// Logger appends timestamped lines to .roadmap/logs/roadmap.log so failures
// stay inspectable after the alt screen is torn down.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
}

// New creates (or reuses) the log file for the given working directory.
func New(projectDir string) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.RoadmapDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "roadmap.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{out: f, closer: f}, nil
}

// NewWriter logs to an arbitrary writer, e.g. stderr for `roadmap web`.
func NewWriter(w io.Writer) *Logger {
	return &Logger{out: w}
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Printf writes a single timestamped line.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	line = strings.TrimRight(line, "\n")
	timestamp := time.Now().Format(time.RFC3339)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] %s\n", timestamp, line)
}
