package config

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultPort is the TCP port the server listens on.
	DefaultPort = 50000

	// DefaultBacklog is the listen queue length for connections that
	// have completed the handshake but not yet been accepted.
	DefaultBacklog = 1024

	// DefaultRecvBufSize bounds a single receive; each receive is
	// printed as one unit.
	DefaultRecvBufSize = 1024

	// DefaultSentinel is the console line that stops one outbound
	// relay without being sent.
	DefaultSentinel = "end"

	// DefaultVerbose prints lifecycle lines but not per-chunk detail.
	DefaultVerbose = 1
)

// Accept policies.
const (
	// AcceptStop stops the accept loop on the first accept error.
	AcceptStop = "stop"
	// AcceptContinue keeps accepting unless the listener itself closed.
	AcceptContinue = "continue"
)

// Console modes.
const (
	// ConsoleShared lets every outbound relay read the console directly;
	// each line goes to whichever relay reads it first.
	ConsoleShared = "shared"
	// ConsoleDispatch routes console lines to one selected session.
	ConsoleDispatch = "dispatch"
)
