package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"drone-activity-classifier/drone"
	"drone-activity-classifier/metrics"
	"drone-activity-classifier/monitor"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
)

const readingEvent = "reading"

type socketController struct {
	info drone.ModelInfo
}

func newSocketController(info drone.ModelInfo) *socketController {
	return &socketController{info: info}
}

func (c *socketController) emitModelInfo(socket socketio.Conn) {
	socket.Emit("modelInfo", c.info)
}

func (c *socketController) handleRequestModelInfo(socket socketio.Conn) {
	c.emitModelInfo(socket)
}

func newSocketServer(controller *socketController) *socketio.Server {
	var allowOriginFunc = func(r *http.Request) bool {
		return true
	}

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		metrics.DisplayClients.Inc()
		log.Printf("CONNECTED: %s, remote addr: %s\n", socket.ID(), socket.RemoteAddr())
		controller.emitModelInfo(socket)
		return nil
	})

	server.OnEvent("/", "requestModelInfo", func(socket socketio.Conn) {
		controller.handleRequestModelInfo(socket)
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		metrics.DisplayClients.Dec()
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
	})

	return server
}

// socketDisplay pushes every reading to connected live clients.
type socketDisplay struct {
	server *socketio.Server
}

func (d socketDisplay) Show(_ context.Context, r monitor.Reading) error {
	if !d.server.BroadcastToNamespace("/", readingEvent, r) {
		return fmt.Errorf("broadcasting %s: namespace not available", readingEvent)
	}
	return nil
}
