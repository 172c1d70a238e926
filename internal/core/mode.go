// Package core is the orchestration layer.  It composes the listening
// transport, the connection registry, sessions and the console into a
// running server, and provides a builder that wires it from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  session/console  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a complete runnable configuration of the server.  It owns
// its lifecycle from bind to shutdown.
type Mode interface {
	Run(ctx context.Context) error
}
