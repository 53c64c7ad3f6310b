package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"montagego/pkg/model"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// EventSource fans out playback events to listeners.
type EventSource interface {
	Subscribe(buffer int) (<-chan model.PlaybackEvent, func())
}

// EventsHandler streams playback events over a websocket.
type EventsHandler struct {
	source   EventSource
	upgrader websocket.Upgrader
}

func NewEventsHandler(src EventSource) *EventsHandler {
	return &EventsHandler{
		source: src,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local control surface; the server binds to localhost by default
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles GET /api/events
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Events: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := h.source.Subscribe(64)
	defer unsubscribe()

	slog.Debug("Events: client connected", "remote", r.RemoteAddr)

	// Reader: handles pongs and detects the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			slog.Debug("Events: client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("Events: write failed", "error", err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
