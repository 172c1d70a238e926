package console

import (
	"context"
	"io"
	"sync"

	"github.com/eapache/queue"
)

// Mailbox is an unbounded FIFO of lines for one session's outbound
// relay.  Put never blocks, so a slow peer cannot stall the dispatcher.
// It has a single consumer.
type Mailbox struct {
	mu     sync.Mutex
	q      *queue.Queue
	signal chan struct{}
	closed bool
}

// NewMailbox returns an empty, open mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{
		q:      queue.New(),
		signal: make(chan struct{}, 1),
	}
}

// Put enqueues line.  It reports false if the mailbox is closed.
func (m *Mailbox) Put(line string) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.q.Add(line)
	m.mu.Unlock()

	m.notify()
	return true
}

// ReadLine dequeues the oldest line.  Queued lines are still delivered
// after Close; io.EOF follows once the queue is empty.
func (m *Mailbox) ReadLine(ctx context.Context) (string, error) {
	for {
		m.mu.Lock()
		if m.q.Length() > 0 {
			line := m.q.Remove().(string)
			m.mu.Unlock()
			return line, nil
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			return "", io.EOF
		}

		select {
		case <-m.signal:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Len returns the number of queued lines.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q.Length()
}

// Close stops further Puts and wakes the reader.
func (m *Mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.notify()
}

func (m *Mailbox) notify() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}
