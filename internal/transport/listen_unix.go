//go:build unix

package transport

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// listen builds the socket by hand so the backlog is honoured; the
// net package always uses the kernel maximum.
func listen(_ context.Context, ep Endpoint, backlog int) (net.Listener, error) {
	ip4 := ep.ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%s is not an IPv4 address", ep.ip)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	unix.CloseOnExec(fd)

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd) //nolint:errcheck
		return nil, os.NewSyscallError("setsockopt", err)
	}

	sa := &unix.SockaddrInet4{Port: ep.port}
	copy(sa.Addr[:], ip4)
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd) //nolint:errcheck
		return nil, os.NewSyscallError("bind", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd) //nolint:errcheck
		return nil, os.NewSyscallError("listen", err)
	}

	// FileListener dups the descriptor; the original is closed with f.
	f := os.NewFile(uintptr(fd), "tcp4:"+ep.String())
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, err
	}
	return ln, nil
}
