package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)
	t.Cleanup(func() {
		SetLevel(LevelInfo)
		SetOutput(os.Stderr)
	})

	Debug("hidden", "k", 1)
	if buf.Len() != 0 {
		t.Fatalf("expected debug line to be suppressed, got %q", buf.String())
	}

	Error("layout failed", errors.New("boom"), "day", "Friday", "dangling")
	line := buf.String()
	for _, want := range []string{"[ERROR]", "layout failed", "err=boom", "day=Friday"} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "dangling") {
		t.Errorf("expected trailing key without value to be dropped, got %q", line)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != LevelDebug || ParseLevel(" ERROR ") != LevelError || ParseLevel("") != LevelInfo {
		t.Fatalf("unexpected level mapping")
	}
}
