package daemon

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"coinsort/internal/jobs"
	"coinsort/internal/logging"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The daemon binds to loopback by default; cross-origin checks would
	// only block local tooling.
	CheckOrigin: func(*http.Request) bool { return true },
}

type snapshotMessage struct {
	Event string     `json:"event"`
	Data  []jobs.Job `json:"data"`
}

// handleWebsocket streams job events to one observer. The connection opens
// with a full snapshot of all jobs, then receives one message per job created
// or updated event until either side closes.
func (s *apiServer) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	// Subscribe before snapshotting so no event between the two is lost.
	// An event already reflected in the snapshot may be delivered again;
	// observers treat messages as state replacements, so replays are
	// harmless.
	sub := s.daemon.hub.Subscribe()
	defer sub.Close()

	snapshot := snapshotMessage{Event: "jobs", Data: s.daemon.registry.Jobs()}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(snapshot); err != nil {
		s.logger.Warn("websocket snapshot write failed", logging.Error(err))
		return
	}

	// Read pump: observers send nothing meaningful, but reading is required
	// to process pongs and notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(wsPongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
