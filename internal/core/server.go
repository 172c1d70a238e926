package core

import (
	"context"
	"fmt"
	"net"

	"tcpchat/internal/console"
	"tcpchat/internal/metrics"
	"tcpchat/internal/registry"
	"tcpchat/util"
)

// Server is the chat server: one Acceptor, the console, and an
// optional Prometheus endpoint.
type Server struct {
	Acceptor   *Acceptor
	Registry   *registry.Registry
	Source     *console.Source     // shared console mode
	Dispatcher *console.Dispatcher // dispatch console mode
	Sink       *console.Sink
	Metrics    *metrics.Collector

	MetricsAddr string
	Logger      *util.Logger
}

// Run binds the listening socket and serves until ctx is done.
//
// A bind failure is returned.  An accept failure only stops accepting:
// sessions already running keep going and Run waits for ctx.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Acceptor.Bind(ctx); err != nil {
		return err
	}

	if s.MetricsAddr != "" {
		ln, err := net.Listen("tcp", s.MetricsAddr)
		if err != nil {
			s.Acceptor.Listener.Close() //nolint:errcheck
			return fmt.Errorf("metrics endpoint: %w", err)
		}
		s.Logger.Verbose("metrics on http://%s/metrics", ln.Addr())
		go func() {
			if err := metrics.Serve(ctx, ln, s.Metrics); err != nil {
				s.Logger.Error("metrics endpoint: %v", err)
			}
		}()
	}

	if s.Dispatcher != nil {
		go func() {
			if err := s.Dispatcher.Run(ctx); err != nil {
				s.Logger.Error("console: %v", err)
			}
		}()
	}

	if err := s.Acceptor.Run(ctx); err != nil {
		s.Logger.Warn("no longer accepting; %d accepted connection(s) keep running until interrupted", s.Registry.Len())
		<-ctx.Done()
	}
	s.Logger.Debug("metrics at shutdown:\n%s", s.Metrics.JSON())
	return nil
}
