// Package config defines the runtime configuration for tcpchat.
package config

import (
	"fmt"

	ncerr "tcpchat/internal/errors"
)

// Config holds every tuneable for one tcpchat server process.
type Config struct {
	// ── Endpoint ─────────────────────────────────────────────────────
	Host    string // bind address; empty → first IPv4 of the host name
	Port    int
	Backlog int

	// ── Sessions ─────────────────────────────────────────────────────
	RecvBufSize  int
	Sentinel     string
	AcceptPolicy string // AcceptStop or AcceptContinue
	ConsoleMode  string // ConsoleShared or ConsoleDispatch
	LinkRelays   bool   // one relay ending stops the other
	EvictClosed  bool   // drop closed connections from the registry

	// ── Observability ────────────────────────────────────────────────
	MetricsAddr string // host:port for /metrics; empty disables
	Verbose     int
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		Backlog:      DefaultBacklog,
		RecvBufSize:  DefaultRecvBufSize,
		Sentinel:     DefaultSentinel,
		AcceptPolicy: AcceptStop,
		ConsoleMode:  ConsoleShared,
		Verbose:      DefaultVerbose,
	}
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &ncerr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 1-65535",
			Hint:    fmt.Sprintf("the default port is %d", DefaultPort),
		}
	}
	if c.Backlog < 1 {
		return &ncerr.ConfigError{
			Field:   "backlog",
			Value:   c.Backlog,
			Message: "must be at least 1",
		}
	}
	if c.RecvBufSize < 1 {
		return &ncerr.ConfigError{
			Field:   "recv-buf",
			Value:   c.RecvBufSize,
			Message: "must be at least 1 byte",
		}
	}
	if c.Sentinel == "" {
		return &ncerr.ConfigError{
			Field:   "sentinel",
			Message: "must not be empty",
			Hint:    fmt.Sprintf("an empty console line would stop the relay; try %q", DefaultSentinel),
		}
	}
	switch c.AcceptPolicy {
	case AcceptStop, AcceptContinue:
	default:
		return &ncerr.ConfigError{
			Field:   "accept-policy",
			Value:   c.AcceptPolicy,
			Message: "unknown policy",
			Hint:    fmt.Sprintf("use %q or %q", AcceptStop, AcceptContinue),
		}
	}
	switch c.ConsoleMode {
	case ConsoleShared, ConsoleDispatch:
	default:
		return &ncerr.ConfigError{
			Field:   "console",
			Value:   c.ConsoleMode,
			Message: "unknown console mode",
			Hint:    fmt.Sprintf("use %q or %q", ConsoleShared, ConsoleDispatch),
		}
	}
	return nil
}
