package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Sink is the console output.  Writes are serialised so chunks from
// concurrent inbound relays never interleave.
type Sink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSink returns a Sink writing to w.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Received prints one receive call's bytes, decoded as UTF-8, prefixed
// with the peer descriptor.  Invalid sequences become U+FFFD.
func (s *Sink) Received(peer string, chunk []byte) {
	text := strings.ToValidUTF8(string(chunk), "\uFFFD")
	s.Printf("Receive data from %s: %s", peer, text)
}

// Printf prints a status line.
func (s *Sink) Printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format+"\n", args...)
}

// Prompt writes the interactive prompt without a newline.
func (s *Sink) Prompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.w, "> ") //nolint:errcheck
}
