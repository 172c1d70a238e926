package util

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"

	ncerr "tcpchat/internal/errors"
)

// HostResolver is the subset of *net.Resolver used for address
// discovery.
type HostResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// LocalIPv4 returns the first IPv4 address the local host name
// resolves to.  This is the address the server binds when no host is
// configured.
func LocalIPv4(ctx context.Context) (net.IP, error) {
	name, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("host name: %w", err)
	}
	return FirstIPv4(ctx, net.DefaultResolver, name)
}

// FirstIPv4 resolves host with r and returns the first IPv4 address in
// resolver order.  It fails with [ncerr.ErrNoLocalAddress] when the
// host only has IPv6 addresses.
func FirstIPv4(ctx context.Context, r HostResolver, host string) (net.IP, error) {
	addrs, err := r.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", host, err)
	}
	for _, a := range addrs {
		if ip4 := a.IP.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, fmt.Errorf("%w for %q", ncerr.ErrNoLocalAddress, host)
}

// ParseIPv4 accepts a numeric IPv4 address.
func ParseIPv4(host string) (net.IP, error) {
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("cannot parse %q as an IPv4 address", host)
	}
	return ip.To4(), nil
}

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// FindFreePort returns an available TCP port on 127.0.0.1.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
