//go:build !unix && !windows

package errors

var abortErrnos []error
