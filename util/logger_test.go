package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(3) // debug level
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	l.Error("e")
	l.Warn("w")
	l.Info("i")
	l.Verbose("v")
	l.Debug("d")

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), output)
	}

	wantPrefixes := []string{"[ERR]", "[WRN]", "[INF]", "[VRB]", "[DBG]"}
	for i, prefix := range wantPrefixes {
		if !strings.Contains(lines[i], prefix) {
			t.Errorf("line %d %q missing prefix %q", i, lines[i], prefix)
		}
	}
}

func TestLogger_QuietMode(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(0) // quiet
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	l.Info("should not appear")
	l.Verbose("should not appear")
	l.Debug("should not appear")
	l.Error("always appears")

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 1 {
		t.Errorf("expected 1 line in quiet mode, got %d:\n%s", len(lines), output)
	}
}

func TestLogger_Timestamps(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(1)
	l.SetOutput(&buf)
	l.SetTimestamps(true)

	l.Info("test")

	output := buf.String()
	// Timestamp format is "HH:MM:SS.mmm"
	if !strings.Contains(output, ":") || len(output) < 15 {
		t.Errorf("expected timestamp prefix, got %q", output)
	}
}

func TestLogger_WarnLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(1) // normal
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	l.Warn("warning message")

	if !strings.Contains(buf.String(), "[WRN]") {
		t.Errorf("expected [WRN] prefix, got %q", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(1)
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	child := l.With("session 3").With("inbound")
	child.Info("peer closed")

	want := "[INF] session 3: inbound: peer closed\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLogger_WithSharesOutput(t *testing.T) {
	l := NewLogger(1)
	child := l.With("x")

	var buf bytes.Buffer
	l.SetOutput(&buf)
	child.SetTimestamps(false)
	child.Error("boom")

	if !strings.Contains(buf.String(), "[ERR] x: boom") {
		t.Errorf("child did not write to parent output: %q", buf.String())
	}
}

func TestBufPool_RoundTrip(t *testing.T) {
	buf := GetBuf(RecvBufSize)
	if buf == nil {
		t.Fatal("GetBuf returned nil")
	}
	if len(*buf) != RecvBufSize {
		t.Errorf("buffer size = %d, want %d", len(*buf), RecvBufSize)
	}

	(*buf)[0] = 0xFF
	PutBuf(buf)

	buf2 := GetBuf(16)
	if len(*buf2) != 16 {
		t.Errorf("buffer size = %d, want 16", len(*buf2))
	}
	PutBuf(buf2)
}

func TestBufPool_Grow(t *testing.T) {
	buf := GetBuf(4 * RecvBufSize)
	if len(*buf) != 4*RecvBufSize {
		t.Errorf("buffer size = %d, want %d", len(*buf), 4*RecvBufSize)
	}
	PutBuf(buf)
}

func TestPutBuf_Nil(t *testing.T) {
	// Should not panic.
	PutBuf(nil)
}
