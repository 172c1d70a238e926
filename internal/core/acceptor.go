package core

import (
	"context"
	"net"

	ncerr "tcpchat/internal/errors"
	"tcpchat/internal/metrics"
	"tcpchat/internal/registry"
	"tcpchat/internal/retry"
	"tcpchat/internal/session"
	"tcpchat/internal/transport"
	"tcpchat/util"
)

// AcceptPolicy decides what an accept error does to the accept loop.
type AcceptPolicy int

const (
	// StopOnError ends the accept loop on the first accept error.
	// Sessions already running are not affected.
	StopOnError AcceptPolicy = iota
	// ContinueOnError classifies each accept error, backs off and keeps
	// accepting, unless the listening socket itself is closed.
	ContinueOnError
)

func (p AcceptPolicy) String() string {
	if p == ContinueOnError {
		return "continue"
	}
	return "stop"
}

// SessionFactory builds the session for a newly registered connection.
type SessionFactory func(e *registry.Entry) *session.Session

// Acceptor owns the listening socket and turns each accepted
// connection into a running Session.  It never waits on a session.
type Acceptor struct {
	Endpoint   transport.Endpoint
	Backlog    int
	Policy     AcceptPolicy
	Registry   *registry.Registry
	NewSession SessionFactory
	Logger     *util.Logger
	Metrics    *metrics.Collector
	Backoff    *retry.Backoff

	// Listener, when set before Run, is used instead of binding
	// Endpoint.
	Listener net.Listener
}

// Bind creates the listening socket.  Failure is startup-fatal.
func (a *Acceptor) Bind(ctx context.Context) error {
	if a.Listener != nil {
		return nil
	}
	backlog := a.Backlog
	if backlog <= 0 {
		backlog = 1024
	}
	ln, err := transport.Listen(ctx, a.Endpoint, backlog)
	if err != nil {
		return err
	}
	a.Listener = ln
	return nil
}

// Addr returns the bound address, or nil before Bind.
func (a *Acceptor) Addr() net.Addr {
	if a.Listener == nil {
		return nil
	}
	return a.Listener.Addr()
}

// Run binds if needed, then accepts until ctx is done or the policy
// says an accept error is fatal.  It returns nil on cancellation and
// the wrapped accept error otherwise.
func (a *Acceptor) Run(ctx context.Context) error {
	if err := a.Bind(ctx); err != nil {
		return err
	}
	if a.Registry == nil {
		a.Registry = registry.New()
	}
	ln := a.Listener
	defer ln.Close()

	a.Logger.Info("ready, waiting for clients on %s", ln.Addr())

	// Shut the listener down when the context expires.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-done:
		}
	}()

	failures := 0
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.Metrics.AcceptFailed(err.Error())
			nerr := ncerr.Wrap("accept", ln.Addr().String(), err)

			if a.Policy == StopOnError || ncerr.IsListenerClosed(err) {
				a.Logger.Error("accept failed, no longer accepting clients: %v", err)
				return nerr
			}

			// Only a closed listener is fatal.  Transient errors are
			// warnings; anything else is reported as an error but
			// retried all the same.
			failures++
			if ncerr.IsTemporary(nerr) {
				a.Logger.Warn("accept failed (attempt %d, retrying): %v", failures, err)
			} else {
				a.Logger.Error("accept failed (attempt %d, retrying): %v", failures, err)
			}
			if a.backoff().Wait(ctx, failures) != nil {
				return nil
			}
			continue
		}

		failures = 0
		a.admit(ctx, conn)
	}
}

// admit registers conn and starts its session without waiting on it.
func (a *Acceptor) admit(ctx context.Context, conn net.Conn) {
	e := a.Registry.Add(conn)
	a.Logger.Info("client %d connected from %s", e.ID, e.Remote)

	sess := a.NewSession(e)
	sess.Start(ctx)
}

func (a *Acceptor) backoff() *retry.Backoff {
	if a.Backoff != nil {
		return a.Backoff
	}
	return retry.AcceptBackoff()
}
