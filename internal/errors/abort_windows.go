//go:build windows

package errors

import "syscall"

var abortErrnos = []error{
	syscall.WSAECONNABORTED,
	syscall.WSAECONNRESET,
	syscall.ECONNABORTED,
	syscall.ECONNRESET,
}
