//go:build !unix

package transport

import (
	"context"
	"net"
)

// listen falls back to the net package; the OS default backlog applies.
func listen(ctx context.Context, ep Endpoint, _ int) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp4", ep.String())
}
