package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jdemuth17/market-analysis/internal/progress"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// ProgressWS pushes progress snapshots to websocket clients
type ProgressWS struct {
	tracker  *progress.Tracker
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewProgressWS creates a progress websocket handler
func NewProgressWS(tracker *progress.Tracker, log *logger.Logger) *ProgressWS {
	return &ProgressWS{
		tracker: tracker,
		logger:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the connection and streams snapshots until the client
// disconnects. The initial state is sent immediately so a late joiner
// sees the current run.
func (h *ProgressWS) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, unsubscribe := h.tracker.Subscribe()
	defer unsubscribe()

	if err := conn.WriteJSON(h.tracker.Snapshot()); err != nil {
		return
	}

	// reader goroutine detects client disconnect
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-keepalive.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
