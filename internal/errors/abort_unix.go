//go:build unix

package errors

import "golang.org/x/sys/unix"

var abortErrnos = []error{
	unix.ECONNABORTED,
	unix.ECONNRESET,
	unix.EPIPE,
}
