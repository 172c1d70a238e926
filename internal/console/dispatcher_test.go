package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"tcpchat/util"
)

// chanReader is a LineReader fed by the test.
type chanReader chan string

func (c chanReader) ReadLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-c:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func newTestDispatcher(t *testing.T) (*Dispatcher, chanReader, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	in := make(chanReader)
	var out, logs bytes.Buffer
	logger := util.NewLogger(1)
	logger.SetOutput(&logs)
	logger.SetTimestamps(false)
	return NewDispatcher(in, NewSink(&out), logger, false), in, &out, &logs
}

func runDispatcher(t *testing.T, d *Dispatcher, in chanReader, lines ...string) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	for _, l := range lines {
		in <- l
	}
	close(in)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop at end of input")
	}
}

func drain(t *testing.T, m *Mailbox) []string {
	t.Helper()
	var out []string
	for {
		line, err := m.ReadLine(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, line)
	}
}

func TestDispatcher_FirstAttachSelected(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t)
	d.Attach(1, "10.0.0.1:1000")
	d.Attach(2, "10.0.0.2:2000")
	if d.Selected() != 1 {
		t.Errorf("Selected = %d, want 1", d.Selected())
	}
}

func TestDispatcher_RoutesToSelected(t *testing.T) {
	d, in, _, _ := newTestDispatcher(t)
	a := d.Attach(1, "10.0.0.1:1000")
	b := d.Attach(2, "10.0.0.2:2000")

	runDispatcher(t, d, in, "to one", ":use 2", "to two", "::colon", "end")

	if got := drain(t, a); strings.Join(got, "|") != "to one" {
		t.Errorf("session 1 got %q", got)
	}
	if got := drain(t, b); strings.Join(got, "|") != "to two|:colon|end" {
		t.Errorf("session 2 got %q", got)
	}
}

func TestDispatcher_DetachClearsSelection(t *testing.T) {
	d, in, _, logs := newTestDispatcher(t)
	d.Attach(1, "10.0.0.1:1000")
	b := d.Attach(2, "10.0.0.2:2000")
	d.Detach(1)

	if d.Selected() != 0 {
		t.Fatalf("Selected = %d, want 0", d.Selected())
	}

	runDispatcher(t, d, in, "dropped")

	if got := drain(t, b); len(got) != 0 {
		t.Errorf("unselected session received %q", got)
	}
	if !strings.Contains(logs.String(), "no session selected") {
		t.Errorf("expected a dropped-line warning, logs:\n%s", logs.String())
	}
}

func TestDispatcher_Commands(t *testing.T) {
	d, in, out, logs := newTestDispatcher(t)
	d.Attach(3, "10.0.0.3:3000")
	d.Attach(4, "10.0.0.4:4000")

	runDispatcher(t, d, in, ":list", ":use 9", ":use x", ":bogus", ":help")

	o := out.String()
	if !strings.Contains(o, "* 3  10.0.0.3:3000") || !strings.Contains(o, "  4  10.0.0.4:4000") {
		t.Errorf("unexpected :list output:\n%s", o)
	}
	if !strings.Contains(o, ":use <id>") {
		t.Errorf(":help output missing:\n%s", o)
	}
	l := logs.String()
	for _, want := range []string{"no session 9", `invalid session id "x"`, `unknown command "bogus"`} {
		if !strings.Contains(l, want) {
			t.Errorf("logs missing %q:\n%s", want, l)
		}
	}
}

func TestDispatcher_EOFClosesMailboxes(t *testing.T) {
	d, in, _, _ := newTestDispatcher(t)
	m := d.Attach(1, "10.0.0.1:1000")

	runDispatcher(t, d, in)

	if m.Put("x") {
		t.Error("mailbox should be closed once the console ends")
	}
}

// TestDispatcher_DetachAfterSentinel: the session's relay reads "end"
// and detaches, so the next operator line is dropped with a warning
// instead of piling up in a mailbox nobody reads.
func TestDispatcher_DetachAfterSentinel(t *testing.T) {
	d, in, _, logs := newTestDispatcher(t)
	box := d.Attach(1, "10.0.0.1:1000")

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		for {
			line, err := box.ReadLine(context.Background())
			if err != nil || line == "end" {
				d.Detach(1)
				return
			}
		}
	}()

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	in <- "end"
	select {
	case <-relayDone:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not see the sentinel")
	}
	in <- "hello?"
	in <- "anyone?"
	close(in)
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	if d.Selected() != 0 {
		t.Errorf("Selected = %d, want 0", d.Selected())
	}
	if box.Len() != 0 {
		t.Errorf("%d lines queued for a session that stopped reading", box.Len())
	}
	if n := strings.Count(logs.String(), "no session selected, line dropped"); n != 2 {
		t.Errorf("expected 2 dropped-line warnings, got %d:\n%s", n, logs.String())
	}
}

// TestDispatcher_ClosedMailboxClearsSelection covers a mailbox closed
// under the dispatcher: the first line is dropped as closed and the
// selection is cleared for the next.
func TestDispatcher_ClosedMailboxClearsSelection(t *testing.T) {
	d, in, _, logs := newTestDispatcher(t)
	d.Attach(1, "10.0.0.1:1000").Close()

	runDispatcher(t, d, in, "hello?", "anyone?")

	if d.Selected() != 0 {
		t.Errorf("Selected = %d, want 0", d.Selected())
	}
	l := logs.String()
	if !strings.Contains(l, "session 1: session is closed, line dropped") {
		t.Errorf("expected a closed-session warning, logs:\n%s", l)
	}
	if !strings.Contains(l, "no session selected, line dropped") {
		t.Errorf("expected the second line to find no target, logs:\n%s", l)
	}
}

func TestDispatcher_AttachAfterEOF(t *testing.T) {
	d, in, _, _ := newTestDispatcher(t)
	runDispatcher(t, d, in)

	m := d.Attach(5, "10.0.0.5:5000")
	if _, err := m.ReadLine(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("ReadLine = %v, want io.EOF once the console has ended", err)
	}
	if d.Selected() != 0 {
		t.Errorf("Selected = %d, want 0", d.Selected())
	}
}
