// Package transport owns the listening side of the server: the bind
// endpoint and construction of the listening socket.  What happens on
// an accepted connection is the session layer's job.
package transport

import (
	"context"
	"net"
	"strconv"

	ncerr "tcpchat/internal/errors"
)

// Endpoint is the IPv4 address and port the server binds.  It is
// immutable once constructed.
type Endpoint struct {
	ip   net.IP
	port int
}

// NewEndpoint copies ip so later changes by the caller are not seen.
func NewEndpoint(ip net.IP, port int) Endpoint {
	cp := make(net.IP, len(ip))
	copy(cp, ip)
	return Endpoint{ip: cp, port: port}
}

// IP returns a copy of the bind address.
func (e Endpoint) IP() net.IP {
	cp := make(net.IP, len(e.ip))
	copy(cp, e.ip)
	return cp
}

// Port returns the bind port (0 lets the kernel pick one).
func (e Endpoint) Port() int { return e.port }

func (e Endpoint) String() string {
	return net.JoinHostPort(e.ip.String(), strconv.Itoa(e.port))
}

// Listen creates a TCP stream socket, binds it to ep and starts
// listening with the given backlog.  Errors are startup-fatal and come
// back as *errors.NetworkError with Op "listen".
func Listen(ctx context.Context, ep Endpoint, backlog int) (net.Listener, error) {
	if err := ctx.Err(); err != nil {
		return nil, ncerr.Wrap("listen", ep.String(), err)
	}
	ln, err := listen(ctx, ep, backlog)
	if err != nil {
		return nil, ncerr.Wrap("listen", ep.String(), err)
	}
	return ln, nil
}
