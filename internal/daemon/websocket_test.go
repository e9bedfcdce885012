package daemon

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"coinsort/internal/jobs"
)

type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialWebsocket(t *testing.T, d *Daemon) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(d.apiServer.server.Handler)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var envelope wsEnvelope
	if err := conn.ReadJSON(&envelope); err != nil {
		t.Fatalf("read: %v", err)
	}
	return envelope
}

func TestWebsocketSendsSnapshotThenEvents(t *testing.T) {
	d := newTestDaemon(t)
	existing := d.registry.Create(jobs.Data{DestinationName: "Bakery"})

	conn := dialWebsocket(t, d)

	snapshot := readEnvelope(t, conn)
	if snapshot.Event != "jobs" {
		t.Fatalf("first message event = %q, want %q", snapshot.Event, "jobs")
	}
	var snapshotJobs []jobs.Job
	if err := json.Unmarshal(snapshot.Data, &snapshotJobs); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snapshotJobs) != 1 || snapshotJobs[0].ID != existing.ID {
		t.Fatalf("snapshot jobs = %+v", snapshotJobs)
	}

	created := d.registry.Create(jobs.Data{DestinationName: "Grocer"})
	envelope := readEnvelope(t, conn)
	if envelope.Event != string(jobs.EventJobCreated) {
		t.Fatalf("event = %q, want %q", envelope.Event, jobs.EventJobCreated)
	}
	var job jobs.Job
	if err := json.Unmarshal(envelope.Data, &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.ID != created.ID {
		t.Errorf("job id = %s, want %s", job.ID, created.ID)
	}

	if err := d.registry.SetInProgress(created.ID); err != nil {
		t.Fatalf("set in progress: %v", err)
	}
	envelope = readEnvelope(t, conn)
	if envelope.Event != string(jobs.EventJobUpdated) {
		t.Fatalf("event = %q, want %q", envelope.Event, jobs.EventJobUpdated)
	}
}

func TestWebsocketDisconnectDetachesSubscriber(t *testing.T) {
	d := newTestDaemon(t)
	conn := dialWebsocket(t, d)
	readEnvelope(t, conn) // snapshot

	if got := d.hub.SubscriberCount(); got != 1 {
		t.Fatalf("subscribers = %d, want 1", got)
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d.hub.SubscriberCount() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscriber still attached after disconnect: %d", d.hub.SubscriberCount())
}
