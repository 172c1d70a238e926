package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"tcpchat/config"
	"tcpchat/internal/console"
	"tcpchat/internal/metrics"
	"tcpchat/internal/registry"
	"tcpchat/internal/session"
	"tcpchat/internal/transport"
	"tcpchat/util"
)

// Build constructs the server Mode from the given configuration, wired
// to the process's stdin and stdout.
func Build(ctx context.Context, cfg *config.Config, logger *util.Logger) (Mode, error) {
	return BuildServer(ctx, cfg, logger, os.Stdin, os.Stdout)
}

// BuildServer constructs a Server reading operator lines from in and
// printing received traffic to out.
func BuildServer(ctx context.Context, cfg *config.Config, logger *util.Logger, in io.Reader, out io.Writer) (*Server, error) {
	ep, err := ResolveEndpoint(ctx, cfg)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		Registry:    registry.New(),
		Sink:        console.NewSink(out),
		Metrics:     metrics.New(),
		MetricsAddr: cfg.MetricsAddr,
		Logger:      logger,
	}

	source := console.NewSource(in)
	if cfg.ConsoleMode == config.ConsoleDispatch {
		srv.Dispatcher = console.NewDispatcher(source, srv.Sink, logger, isTerminal(in))
	} else {
		srv.Source = source
	}

	policy := StopOnError
	if cfg.AcceptPolicy == config.AcceptContinue {
		policy = ContinueOnError
	}

	opts := session.Options{
		Sentinel:    cfg.Sentinel,
		RecvBufSize: cfg.RecvBufSize,
		Linked:      cfg.LinkRelays,
	}
	evict := cfg.EvictClosed

	srv.Acceptor = &Acceptor{
		Endpoint: ep,
		Backlog:  cfg.Backlog,
		Policy:   policy,
		Registry: srv.Registry,
		Logger:   logger,
		Metrics:  srv.Metrics,
		NewSession: func(e *registry.Entry) *session.Session {
			var input session.LineReader = srv.Source
			if srv.Dispatcher != nil {
				input = srv.Dispatcher.Attach(e.ID, e.Remote)
			}
			s := session.New(e.ID, e.Conn, input, srv.Sink, logger, opts)
			s.Metrics = srv.Metrics
			if srv.Dispatcher != nil {
				s.OnOutboundDone(func(s *session.Session) { srv.Dispatcher.Detach(s.ID) })
			}
			s.OnClose(func(s *session.Session) {
				if evict {
					srv.Registry.Remove(s.ID)
				}
			})
			return s
		},
	}
	return srv, nil
}

// ResolveEndpoint returns the endpoint the server binds: the configured
// host if set, otherwise the first IPv4 address of the local host name.
func ResolveEndpoint(ctx context.Context, cfg *config.Config) (transport.Endpoint, error) {
	if cfg.Host != "" {
		ip, err := util.ParseIPv4(cfg.Host)
		if err != nil {
			return transport.Endpoint{}, fmt.Errorf("bind address: %w", err)
		}
		return transport.NewEndpoint(ip, cfg.Port), nil
	}
	ip, err := util.LocalIPv4(ctx)
	if err != nil {
		return transport.Endpoint{}, err
	}
	return transport.NewEndpoint(ip, cfg.Port), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && console.Interactive(f)
}
