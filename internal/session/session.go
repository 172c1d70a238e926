// Package session runs the duplex lifecycle of one accepted connection.
//
// A Session owns one net.Conn and two relays: outbound copies console
// lines to the peer, inbound prints whatever the peer sends.  The relays
// fail independently; one reads the connection and the other writes it,
// so they share it without locking.  The connection is closed once both
// relays have ended.
package session

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	ncerr "tcpchat/internal/errors"
	"tcpchat/internal/metrics"
	"tcpchat/util"
)

// LineReader supplies console lines to the outbound relay.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

// Printer receives each chunk the inbound relay reads.
type Printer interface {
	Received(peer string, chunk []byte)
}

// Options tune a Session.  The zero value uses the defaults.
type Options struct {
	// Sentinel is the console line that stops the outbound relay
	// without being sent (default "end").
	Sentinel string
	// RecvBufSize bounds one receive (default 1024).
	RecvBufSize int
	// Linked makes either relay's end stop the other and close the
	// connection.  Without it a relay keeps running after its partner
	// dies until its own I/O fails.
	Linked bool
}

// State is the lifecycle position of a Session.
type State int32

const (
	StateNew        State = iota
	StateRunning          // both relays running
	StateHalfClosed       // one relay ended
	StateClosed           // both ended, connection closed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateRunning:
		return "running"
	case StateHalfClosed:
		return "half-closed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session encapsulates the runtime context for a single connection.
type Session struct {
	ID      uint64
	Conn    net.Conn
	Remote  string
	Input   LineReader
	Output  Printer
	Logger  *util.Logger
	Metrics *metrics.Collector

	opts    Options
	state   atomic.Int32
	running atomic.Int32
	once    sync.Once
	cancel  context.CancelFunc
	done    chan struct{}

	mu         sync.Mutex
	onClose    []func(*Session)
	onOutbound []func(*Session)
}

// New creates a Session bound to conn.  Nothing runs until Start.
func New(id uint64, conn net.Conn, input LineReader, output Printer, logger *util.Logger, opts Options) *Session {
	if opts.Sentinel == "" {
		opts.Sentinel = "end"
	}
	if opts.RecvBufSize <= 0 {
		opts.RecvBufSize = util.RecvBufSize
	}
	remote := ""
	if ra := conn.RemoteAddr(); ra != nil {
		remote = ra.String()
	}
	return &Session{
		ID:     id,
		Conn:   conn,
		Remote: remote,
		Input:  input,
		Output: output,
		Logger: logger,
		opts:   opts,
		done:   make(chan struct{}),
	}
}

// OnClose registers fn to run once the session has closed.
func (s *Session) OnClose(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = append(s.onClose, fn)
}

// OnOutboundDone registers fn to run when the outbound relay ends,
// before the session as a whole may have closed.
func (s *Session) OnOutboundDone(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOutbound = append(s.onOutbound, fn)
}

// Start launches both relays and returns immediately.  Calling it more
// than once has no effect.
func (s *Session) Start(ctx context.Context) {
	s.once.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.cancel = cancel
		s.mu.Unlock()
		s.running.Store(2)
		s.state.Store(int32(StateRunning))
		s.Metrics.SessionOpened()

		// Unblocks a pending Read once the session is cancelled.
		go func() {
			<-ctx.Done()
			s.Conn.Close() //nolint:errcheck
		}()

		go s.inbound(ctx)
		go s.outbound(ctx)
	})
}

// Done is closed once both relays have ended and the close hooks
// have run.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Close stops both relays and closes the connection.
func (s *Session) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return s.Conn.Close()
}

// ── outbound: console → peer ─────────────────────────────────────────

func (s *Session) outbound(ctx context.Context) {
	log := s.logger("outbound")
	defer s.relayDone()
	defer s.runHooks(&s.onOutbound)

	for {
		line, err := s.Input.ReadLine(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				log.Debug("stopped")
			case errors.Is(err, io.EOF):
				log.Verbose("console input ended")
			default:
				log.Error("console read failed: %v", err)
			}
			return
		}

		if line == s.opts.Sentinel {
			log.Info("%q received, no longer sending to %s", s.opts.Sentinel, s.Remote)
			return
		}

		n, err := s.Conn.Write([]byte(line))
		s.Metrics.BytesSent(int64(n))
		if err != nil {
			log.Error("send to %s failed: %v", s.Remote, err)
			s.Metrics.SendFailed(err.Error())
			if s.opts.Linked {
				return
			}
			continue
		}
		log.Debug("sent %d bytes", n)
	}
}

// ── inbound: peer → console ──────────────────────────────────────────

func (s *Session) inbound(ctx context.Context) {
	log := s.logger("inbound")
	defer s.relayDone()

	buf := util.GetBuf(s.opts.RecvBufSize)
	defer util.PutBuf(buf)

	for {
		n, err := s.Conn.Read(*buf)
		if n > 0 {
			s.Metrics.BytesReceived(int64(n))
			s.Output.Received(s.Remote, (*buf)[:n])
		}
		if err != nil {
			s.recvFailed(ctx, log, err)
			return
		}
	}
}

func (s *Session) recvFailed(ctx context.Context, log *util.Logger, err error) {
	switch {
	case ctx.Err() != nil:
		log.Debug("stopped")
	case errors.Is(err, io.EOF):
		log.Info("%s closed the connection", s.Remote)
	case ncerr.IsConnAborted(err):
		log.Warn("client %s has disconnected", s.Remote)
		log.Error("receive from %s failed: %v", s.Remote, err)
		s.Metrics.RecvFailed(err.Error())
	default:
		log.Error("receive from %s failed: %v", s.Remote, err)
		s.Metrics.RecvFailed(err.Error())
	}
}

// ── lifecycle ────────────────────────────────────────────────────────

func (s *Session) relayDone() {
	if s.opts.Linked {
		s.cancel()
	}
	if s.running.Add(-1) > 0 {
		s.state.CompareAndSwap(int32(StateRunning), int32(StateHalfClosed))
		return
	}

	s.cancel()
	s.Conn.Close() //nolint:errcheck
	s.state.Store(int32(StateClosed))
	s.Metrics.SessionClosed()
	s.logger("").Verbose("closed")

	s.runHooks(&s.onClose)
	close(s.done)
}

func (s *Session) runHooks(hooks *[]func(*Session)) {
	s.mu.Lock()
	fns := *hooks
	s.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (s *Session) logger(relay string) *util.Logger {
	l := s.Logger.With("session " + strconv.FormatUint(s.ID, 10))
	if relay != "" {
		l = l.With(relay)
	}
	return l
}
