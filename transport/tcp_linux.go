//go:build linux
// +build linux

package transport

import (
	"net"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// tuneKeepalive sets Linux-specific keepalive socket options so a dropped
// Android Auto head unit (phone pulled out of range, USB-over-TCP bridge
// wedged) is detected well before the OS default two-hour keepalive would
// notice. Mirrors the teacher's mtcp client dial control.
func tuneKeepalive(conn net.Conn) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}

	raw, err := tc.SyscallConn()
	if err != nil {
		log.WithField("component", "tcp_transport").WithError(err).Warn("failed to access raw conn for keepalive tuning")
		return
	}

	const (
		keepCnt   = 3
		keepIdle  = 5
		keepIntvl = 3
	)

	ctrlErr := raw.Control(func(fd uintptr) {
		opts := map[int]int{
			unix.TCP_KEEPCNT:   keepCnt,
			unix.TCP_KEEPIDLE:  keepIdle,
			unix.TCP_KEEPINTVL: keepIntvl,
		}
		for opt, value := range opts {
			if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, opt, value); err != nil {
				log.WithField("component", "tcp_transport").WithError(err).Warn("failed to set keepalive option")
				return
			}
		}
	})
	if ctrlErr != nil {
		log.WithField("component", "tcp_transport").WithError(ctrlErr).Warn("keepalive control failed")
	}
}
