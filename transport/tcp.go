package transport

import (
	"net"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/aauto/aauto/aautoerr"
)

// TCPTransport is the TCP variant of Base: one physical read/write per
// queued request, TCP_NODELAY set at construction to avoid Nagle-induced
// latency on small control messages.
type TCPTransport struct {
	*Base
	conn     net.Conn
	stopping int32
}

// NewTCPTransport wraps an established TCP connection. Dials/listens are
// the caller's responsibility; this module only multiplexes an open link.
func NewTCPTransport(conn net.Conn) *TCPTransport {
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			log.WithField("component", "tcp_transport").WithError(err).
				Warn("failed to set TCP_NODELAY")
		}
	}
	tuneKeepalive(conn)

	t := &TCPTransport{conn: conn}
	t.Base = NewBase("tcp:"+conn.RemoteAddr().String(), t)
	return t
}

func (t *TCPTransport) enqueueReceive(buf []byte, onDone func(n int), onErr func(*aautoerr.Error)) {
	go func() {
		n, err := t.conn.Read(buf)
		if n > 0 {
			onDone(n)
			return
		}
		if err != nil {
			onErr(t.mapErr(err))
			return
		}
		onDone(0)
	}()
}

func (t *TCPTransport) enqueueSend(data []byte, onDone func(), onErr func(*aautoerr.Error)) {
	go func() {
		if _, err := t.conn.Write(data); err != nil {
			onErr(t.mapErr(err))
			return
		}
		onDone()
	}()
}

func (t *TCPTransport) stopPhysical() {
	atomic.StoreInt32(&t.stopping, 1)
	_ = t.conn.Close()
}

// mapErr reports aautoerr.Aborted for failures caused by our own
// stopPhysical closing the connection, and aautoerr.TcpTransfer for every
// other I/O failure -- mirroring the USB variant's cancellation mapping.
func (t *TCPTransport) mapErr(err error) *aautoerr.Error {
	if atomic.LoadInt32(&t.stopping) != 0 {
		return aautoerr.Aborted
	}
	return mapTCPErr(err)
}

func mapTCPErr(err error) *aautoerr.Error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return aautoerr.TcpTransferErr(0)
	}
	return aautoerr.WithNative(aautoerr.TcpTransfer, 0, err.Error())
}
