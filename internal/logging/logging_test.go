package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"warning": LevelWarn,
		"WARN":    LevelWarn,
		" error ": LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn)
	l.SetOutput(&buf)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warn("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("filtered messages leaked: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 3") || !strings.Contains(out, "[ERROR] shown 4") {
		t.Errorf("missing messages: %q", out)
	}

	l.SetLevel(LevelDebug)
	if !l.Enabled(LevelDebug) {
		t.Error("debug should be enabled after SetLevel")
	}
}

func TestNamedSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	root := New(LevelInfo)
	root.SetOutput(&buf)

	child := root.Named("anim").Named("loop")
	child.Info("frame %d", 7)

	if !strings.Contains(buf.String(), "[INFO] anim.loop: frame 7") {
		t.Errorf("unexpected output %q", buf.String())
	}

	root.SetLevel(LevelError)
	buf.Reset()
	child.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("child should follow the parent's level, got %q", buf.String())
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug)
	l.SetOutput(&buf)

	w := l.Writer(LevelDebug)
	n, err := w.Write([]byte("GET /a 200\nGET /b 404\n"))
	if err != nil || n != 22 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if got := strings.Count(buf.String(), "[DEBUG]"); got != 2 {
		t.Errorf("expected 2 lines, got %d: %q", got, buf.String())
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing to see")
	if l.Enabled(LevelError) {
		t.Error("Discard logger should not enable any level")
	}
}
