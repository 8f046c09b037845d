// Command aautoctl is a small diagnostic tool for the transport core: it
// dials a TCP endpoint, opens a Messenger over it, and logs every message
// that arrives on a chosen channel -- mirroring the teacher's cmd/dtn-tool
// in spirit (a thin operational wrapper around the library, not part of
// the core itself).
package main

import (
	"flag"
	"net"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/channel"
	"github.com/aauto/aauto/config"
	"github.com/aauto/aauto/cryptor"
	"github.com/aauto/aauto/messenger"
	"github.com/aauto/aauto/promise"
	"github.com/aauto/aauto/protocol"
	"github.com/aauto/aauto/transport"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	channelFlag := flag.Uint("channel", uint(protocol.ChannelMediaStatus), "channel id to watch")
	consoleAddr := flag.String("console", "", "address to serve the websocket diagnostic console on, e.g. :8088 (disabled if empty)")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("aautoctl: -config is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	if level, lerr := log.ParseLevel(cfg.Log.Level); lerr == nil {
		log.SetLevel(level)
	}

	if cfg.Transport.Kind != "tcp" {
		log.WithField("kind", cfg.Transport.Kind).Fatal("aautoctl only drives the tcp transport today")
	}

	port := strconv.Itoa(cfg.Transport.TCP.Port)
	addrs := []string{net.JoinHostPort(cfg.Transport.TCP.Host, port)}
	for _, host := range cfg.Transport.TCP.FallbackHosts {
		addrs = append(addrs, net.JoinHostPort(host, port))
	}

	conn, err := dialFirst(addrs)
	if err != nil {
		log.WithError(err).WithField("addrs", addrs).Fatal("failed to dial any candidate address")
	}

	t := transport.NewTCPTransport(conn)
	in := messenger.NewMessageInStream(t, cryptor.Passthrough{})
	out := messenger.NewMessageOutStream(t, cryptor.Passthrough{})
	m := messenger.NewMessenger(in, out)

	strand := promise.NewStrand(8)
	ch := channel.New(strand, protocol.ChannelId(*channelFlag), m)

	var diag *console
	if *consoleAddr != "" {
		diag = newConsole()
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", diag.handleWS)
		go func() {
			if err := http.ListenAndServe(*consoleAddr, mux); err != nil {
				log.WithError(err).Fatal("console server failed")
			}
		}()
		log.WithField("addr", *consoleAddr).Info("diagnostic console listening")
	}

	var watch func()
	watch = func() {
		ch.Receive(func(msg *messenger.Message) {
			log.WithFields(log.Fields{
				"channel":  msg.ChannelId,
				"trace_id": msg.TraceID(),
				"bytes":    len(msg.Payload),
			}).Info("message received")
			if diag != nil {
				diag.onMessage(msg)
			}
			watch()
		}, func(e *aautoerr.Error) {
			log.WithError(e).Error("channel receive failed")
		})
	}
	watch()

	select {}
}
