// Package console is the operator side of the server: the line source
// outbound relays read from, the sink inbound traffic is printed to,
// and the dispatcher that routes operator lines to one session.
package console

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// LineReader yields one line per call, blocking until a line is
// available, the input ends (io.EOF), or ctx is done.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

// Source is the shared console input.  Any number of goroutines may
// call ReadLine concurrently; every line is handed to exactly one of
// them, whichever is waiting first.
type Source struct {
	r     io.Reader
	once  sync.Once
	lines chan string
	done  chan struct{}
	err   error // valid once done is closed
}

// NewSource wraps r.  Reading starts on the first ReadLine call.
func NewSource(r io.Reader) *Source {
	return &Source{
		r:     r,
		lines: make(chan string),
		done:  make(chan struct{}),
	}
}

// ReadLine returns the next line without its line terminator.
func (s *Source) ReadLine(ctx context.Context) (string, error) {
	s.once.Do(func() { go s.pump() })

	select {
	case line := <-s.lines:
		return line, nil
	case <-s.done:
		return "", s.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// pump reads lines of any length.  A final line without a terminator
// is still delivered before the read error.
func (s *Source) pump() {
	br := bufio.NewReader(s.r)
	for {
		line, err := br.ReadString('\n')
		if err == nil || line != "" {
			line = strings.TrimSuffix(line, "\n")
			s.lines <- strings.TrimSuffix(line, "\r")
		}
		if err != nil {
			s.err = err
			close(s.done)
			return
		}
	}
}
