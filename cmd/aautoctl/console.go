package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/aauto/aauto/messenger"
)

// diagnosticEvent is one line streamed to every connected console client.
type diagnosticEvent struct {
	Channel string `json:"channel"`
	TraceID string `json:"trace_id"`
	Bytes   int    `json:"bytes"`
}

// console fans out a copy of every message aautoctl receives to any number
// of browser clients connected over WebSocket, mirroring the teacher's
// impl_ws.go wiring gorilla/websocket as a second transport alongside plain
// TCP -- here used the other direction, as an observability sink rather
// than the wire itself.
type console struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newConsole() *console {
	return &console{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (c *console) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("console: websocket upgrade failed")
		return
	}

	c.mu.Lock()
	c.clients[conn] = struct{}{}
	c.mu.Unlock()

	go func() {
		defer c.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (c *console) drop(conn *websocket.Conn) {
	c.mu.Lock()
	delete(c.clients, conn)
	c.mu.Unlock()
	_ = conn.Close()
}

// broadcast sends ev to every currently connected console client, dropping
// any that fail to write rather than letting one stalled browser tab block
// the others.
func (c *console) broadcast(ev diagnosticEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		log.WithError(err).Warn("console: failed to marshal diagnostic event")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for conn := range c.clients {
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			delete(c.clients, conn)
			_ = conn.Close()
		}
	}
}

func (c *console) onMessage(msg *messenger.Message) {
	c.broadcast(diagnosticEvent{
		Channel: msg.ChannelId.String(),
		TraceID: msg.TraceID().String(),
		Bytes:   len(msg.Payload),
	})
}
