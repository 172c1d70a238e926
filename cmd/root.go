// Package cmd wires up the CLI flags and starts the chat server.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"tcpchat/config"
	"tcpchat/internal/core"
	"tcpchat/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X tcpchat/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// stdout receives --version, --help and --dry-run output.
var stdout io.Writer = os.Stdout //nolint:gochecknoglobals

// Execute parses args and runs the server until ctx is done.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("tcpchat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// ── endpoint ─────────────────────────────────────────────────
	fs.StringVarP(&cfg.Host, "host", "H", cfg.Host, "IPv4 address to bind (default: first IPv4 of this host)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "TCP port to listen on")
	fs.IntVar(&cfg.Backlog, "backlog", cfg.Backlog, "Pending-connection queue length")

	// ── sessions ─────────────────────────────────────────────────
	fs.IntVar(&cfg.RecvBufSize, "recv-buf", cfg.RecvBufSize, "Bytes read per receive")
	fs.StringVar(&cfg.Sentinel, "sentinel", cfg.Sentinel, "Console line that stops sending")
	fs.StringVar(&cfg.AcceptPolicy, "accept-policy", cfg.AcceptPolicy, "On accept error: stop or continue")
	fs.StringVar(&cfg.ConsoleMode, "console", cfg.ConsoleMode, "Console input: shared or dispatch")
	fs.BoolVar(&cfg.LinkRelays, "link-relays", cfg.LinkRelays, "End the whole session when either direction ends")
	fs.BoolVar(&cfg.EvictClosed, "evict-closed", cfg.EvictClosed, "Forget connections once their session closes")

	// ── output ───────────────────────────────────────────────────
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on host:port")
	baseVerbose := cfg.Verbose
	var verbose int
	fs.CountVarP(&verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration, print it and exit")

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "tcpchat %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg.Verbose = baseVerbose + verbose
	cfg.AcceptPolicy = strings.ToLower(cfg.AcceptPolicy)
	cfg.ConsoleMode = strings.ToLower(cfg.ConsoleMode)

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	if dryRun {
		ep, err := core.ResolveEndpoint(ctx, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "listen %s backlog=%d recv-buf=%d sentinel=%q accept-policy=%s console=%s link-relays=%t evict-closed=%t\n",
			ep, cfg.Backlog, cfg.RecvBufSize, cfg.Sentinel, cfg.AcceptPolicy,
			cfg.ConsoleMode, cfg.LinkRelays, cfg.EvictClosed)
		return nil
	}

	// ── run ──────────────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	mode, err := core.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(stdout, `tcpchat v%s

A line-oriented TCP chat server.  Each line the operator types is sent
to one connected client: the next one waiting in shared mode, or the
selected one in dispatch mode.  Everything a client sends is printed
here.

Usage:
  tcpchat [options]

Options:
`, version)
	fs.SetOutput(stdout)
	fs.PrintDefaults()
	fmt.Fprintf(stdout, `
Console:
  type a line to send it, type "end" to stop sending to a client

Environment:
  TCPCHAT_HOST, TCPCHAT_PORT, TCPCHAT_BACKLOG, TCPCHAT_RECV_BUF,
  TCPCHAT_SENTINEL, TCPCHAT_ACCEPT_POLICY, TCPCHAT_CONSOLE,
  TCPCHAT_LINK_RELAYS, TCPCHAT_EVICT_CLOSED, TCPCHAT_METRICS_ADDR,
  TCPCHAT_VERBOSE

Examples:
  tcpchat                                 Listen on <this host>:50000
  tcpchat -H 127.0.0.1 -p 9000            Listen on loopback
  tcpchat --console dispatch --link-relays
  tcpchat --metrics-addr 127.0.0.1:9100 -vv
`)
}
