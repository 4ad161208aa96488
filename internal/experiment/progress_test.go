package experiment

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/san-kum/galdyn/internal/dynamo"
)

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewProgress(log, 10, 4)

	x := dynamo.State{3, 4, 0, 0, 0, 0}
	for i := 0; i <= 100; i++ {
		p.OnStep(x, 0.1*float64(i))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d progress lines, want 4:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "percent=25") || !strings.Contains(lines[0], "r=5") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[3], "percent=100") {
		t.Errorf("last line = %q", lines[3])
	}
}
