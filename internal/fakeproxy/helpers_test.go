// SPDX-License-Identifier: GPL-3.0-or-later

package fakeproxy

import (
	"net"

	"github.com/bassosimone/netstub"
)

// newMinimalConn returns a [*netstub.FuncConn] with only LocalAddrFunc and
// RemoteAddrFunc set, the minimum needed for safeconn's address helpers to
// succeed during construction of an [*observedConn].
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return &net.TCPAddr{} },
		RemoteAddrFunc: func() net.Addr { return &net.TCPAddr{} },
	}
}
