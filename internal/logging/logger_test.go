package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/roadmap/internal/config"
)

func TestPrintfAppendsTimestampedLine(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Printf("fetched %d features\n", 3)
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, config.RoadmapDir, "logs", "roadmap.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "] fetched 3 features") {
		t.Fatalf("unexpected log line %q", line)
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored")
	if err := logger.Close(); err != nil {
		t.Fatalf("close nil logger: %v", err)
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Printf("web: listening on %s", "127.0.0.1:8787")
	if !strings.Contains(buf.String(), "web: listening on 127.0.0.1:8787") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
