package devfeed

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	server := NewServer(&Config{
		Addr:    "127.0.0.1:0",
		Session: "test-session",
		Logger:  log.New(io.Discard, "", 0),
	})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func dial(t *testing.T, server *Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws://"+server.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, server *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for server.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, got %d", n, server.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServerHello(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server)

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeHello {
		t.Errorf("Expected hello message, got %s", msg.Type)
	}
	if msg.Session != "test-session" {
		t.Errorf("Expected session test-session, got %q", msg.Session)
	}
	waitForClients(t, server, 1)
}

func TestServerPublish(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server)
	readMessage(t, conn)
	waitForClients(t, server, 1)

	server.Publish("schema_changed", map[string]any{"file": "prisma/schema.prisma"})

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeSchemaChanged {
		t.Fatalf("Expected schema_changed, got %s", msg.Type)
	}
	if msg.Session != "test-session" {
		t.Errorf("Expected session on broadcast, got %q", msg.Session)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
	var data map[string]string
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("Failed to unmarshal data: %v", err)
	}
	if data["file"] != "prisma/schema.prisma" {
		t.Errorf("Expected file field, got %v", data)
	}
}

func TestServerReplaysHistory(t *testing.T) {
	server := newTestServer(t)
	server.Publish("generate", nil)
	server.Publish("restart", map[string]any{"file": "schema.prisma"})

	deadline := time.Now().Add(2 * time.Second)
	for len(server.History()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected 2 messages in history, got %d", len(server.History()))
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn := dial(t, server)
	if msg := readMessage(t, conn); msg.Type != MessageTypeHello {
		t.Fatalf("Expected hello first, got %s", msg.Type)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypeGenerate {
		t.Errorf("Expected generate replayed, got %s", msg.Type)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypeRestart {
		t.Errorf("Expected restart replayed, got %s", msg.Type)
	}
}

func TestServerJoinDuringBroadcast(t *testing.T) {
	server := newTestServer(t)
	const total = 40

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			server.Publish("generate", map[string]any{"seq": i})
			time.Sleep(time.Millisecond)
		}
	}()

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i] = dial(t, server)
		time.Sleep(5 * time.Millisecond)
	}
	<-done

	for i, conn := range conns {
		if msg := readMessage(t, conn); msg.Type != MessageTypeHello {
			t.Fatalf("client %d: expected hello first, got %s", i, msg.Type)
		}
		for want := 0; want < total; want++ {
			msg := readMessage(t, conn)
			var data map[string]int
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				t.Fatalf("client %d: failed to unmarshal data: %v", i, err)
			}
			if data["seq"] != want {
				t.Fatalf("client %d: got seq %d, want %d", i, data["seq"], want)
			}
		}
	}
}

func TestServerHistoryBounded(t *testing.T) {
	server := NewServer(&Config{Logger: log.New(io.Discard, "", 0)})
	for i := 0; i < historySize+10; i++ {
		server.remember(Message{Type: MessageTypeResume})
	}
	if got := len(server.History()); got != historySize {
		t.Errorf("Expected history capped at %d, got %d", historySize, got)
	}
	if server.Session() == "" {
		t.Error("Expected a generated session id")
	}
}

func TestServerHealth(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get("http://" + server.Addr() + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if body["status"] != "ok" || body["session"] != "test-session" {
		t.Errorf("Unexpected health body: %v", body)
	}
}
