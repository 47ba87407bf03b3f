//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/common/errclass/errclass.go
//

// Package errclass classifies network errors into short, platform-independent
// tag strings suitable for use as metric label values.
package errclass

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// Tag values returned by [New]. These are stable strings: they appear
// verbatim as the "errno" label value of emitted metrics, so renaming one
// changes the wire format of every series that carries it.
const (
	EADDRNOTAVAIL   = "EADDRNOTAVAIL"
	EADDRINUSE      = "EADDRINUSE"
	ECONNABORTED    = "ECONNABORTED"
	ECONNREFUSED    = "ECONNREFUSED"
	ECONNRESET      = "ECONNRESET"
	EHOSTUNREACH    = "EHOSTUNREACH"
	EINVAL          = "EINVAL"
	EINTR           = "EINTR"
	ENETDOWN        = "ENETDOWN"
	ENETUNREACH     = "ENETUNREACH"
	ENOBUFS         = "ENOBUFS"
	ENOTCONN        = "ENOTCONN"
	EPROTONOSUPPORT = "EPROTONOSUPPORT"
	ETIMEDOUT       = "ETIMEDOUT"
	EPIPE           = "EPIPE"
	EOF             = "EOF"

	// EGENERIC is returned for any error that does not match a more
	// specific tag above.
	EGENERIC = "EGENERIC"
)

// New classifies err into one of the tag constants above. It returns the
// empty string for a nil error, so a clean close carries the errno label
// with an empty value rather than an explicit "no error" tag.
func New(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return ETIMEDOUT
	}
	if errors.Is(err, context.Canceled) {
		return EINTR
	}
	if errors.Is(err, net.ErrClosed) {
		return EPIPE
	}
	if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, io.EOF) {
		return EOF
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if tag, ok := classifyErrno(errno); ok {
			return tag
		}
	}

	return EGENERIC
}

// classifyErrno maps a syscall errno to its tag, using the platform-specific
// constant table in unix.go/windows.go.
func classifyErrno(errno syscall.Errno) (string, bool) {
	switch errno {
	case syscall.Errno(errEADDRNOTAVAIL):
		return EADDRNOTAVAIL, true
	case syscall.Errno(errEADDRINUSE):
		return EADDRINUSE, true
	case syscall.Errno(errECONNABORTED):
		return ECONNABORTED, true
	case syscall.Errno(errECONNREFUSED):
		return ECONNREFUSED, true
	case syscall.Errno(errECONNRESET):
		return ECONNRESET, true
	case syscall.Errno(errEHOSTUNREACH):
		return EHOSTUNREACH, true
	case syscall.Errno(errEINVAL):
		return EINVAL, true
	case syscall.Errno(errEINTR):
		return EINTR, true
	case syscall.Errno(errENETDOWN):
		return ENETDOWN, true
	case syscall.Errno(errENETUNREACH):
		return ENETUNREACH, true
	case syscall.Errno(errENOBUFS):
		return ENOBUFS, true
	case syscall.Errno(errENOTCONN):
		return ENOTCONN, true
	case syscall.Errno(errEPROTONOSUPPORT):
		return EPROTONOSUPPORT, true
	case syscall.Errno(errETIMEDOUT):
		return ETIMEDOUT, true
	default:
		return "", false
	}
}
