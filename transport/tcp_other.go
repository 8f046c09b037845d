//go:build !linux
// +build !linux

package transport

import "net"

// tuneKeepalive is a no-op outside Linux; TCP_NODELAY alone (set in
// NewTCPTransport) is portable, the finer keepalive knobs are not.
func tuneKeepalive(conn net.Conn) {}
