package transport

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/aauto/aauto/aautoerr"
)

// WebTransport carries frame bytes as binary WebSocket messages. It is not
// part of the USB/TCP core contract and nothing in this module constructs
// it outside its tests; cmd/aautoctl drives only the TCP transport, and its
// diagnostic console talks to gorilla/websocket directly. It mirrors the
// way the teacher repo's tcpclv4 package offers a websocket message-switch
// alongside its plain TCP one.
type WebTransport struct {
	*Base
	conn *websocket.Conn

	writeMu sync.Mutex
	pending []byte
}

// NewWebTransport wraps an established WebSocket connection.
func NewWebTransport(conn *websocket.Conn) *WebTransport {
	t := &WebTransport{conn: conn}
	t.Base = NewBase("ws:"+conn.RemoteAddr().String(), t)
	return t
}

func (t *WebTransport) enqueueReceive(buf []byte, onDone func(n int), onErr func(*aautoerr.Error)) {
	go func() {
		if len(t.pending) == 0 {
			_, data, err := t.conn.ReadMessage()
			if err != nil {
				onErr(aautoerr.WithNative(aautoerr.TcpTransfer, 0, err.Error()))
				return
			}
			t.pending = data
		}

		n := copy(buf, t.pending)
		t.pending = t.pending[n:]
		onDone(n)
	}()
}

func (t *WebTransport) enqueueSend(data []byte, onDone func(), onErr func(*aautoerr.Error)) {
	go func() {
		t.writeMu.Lock()
		err := t.conn.WriteMessage(websocket.BinaryMessage, data)
		t.writeMu.Unlock()

		if err != nil {
			onErr(aautoerr.WithNative(aautoerr.TcpTransfer, 0, err.Error()))
			return
		}
		onDone()
	}()
}

func (t *WebTransport) stopPhysical() {
	_ = t.conn.Close()
}
