// Package devfeed streams dev session events over WebSocket.
//
// Editors and dashboards connect to /ws and receive one JSON message per
// event: schema changes, client generation, migration prompts and app
// restarts. New clients first get a hello message followed by the recent
// history of the session.
package devfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// MessageType defines the type of feed message
type MessageType string

const (
	// MessageTypeHello is sent once to each new client
	MessageTypeHello MessageType = "hello"

	MessageTypeSession       MessageType = "session"
	MessageTypeSchemaChanged MessageType = "schema_changed"
	MessageTypeGenerate      MessageType = "generate"
	MessageTypePrompt        MessageType = "prompt"
	MessageTypeRestart       MessageType = "restart"
	MessageTypeResume        MessageType = "resume"
	MessageTypeExit          MessageType = "exit"
)

// Message represents a feed broadcast message
type Message struct {
	Type      MessageType     `json:"type"`
	Session   string          `json:"session"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// historySize bounds the messages replayed to new clients.
const historySize = 50

// Server manages WebSocket connections and broadcasts feed messages
type Server struct {
	addr     string
	session  string
	listener net.Listener
	server   *http.Server

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	history   []Message
	historyMu sync.Mutex

	broadcast chan Message
	joins     chan *websocket.Conn

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// Config holds server configuration
type Config struct {
	// Addr to listen on, e.g. "127.0.0.1:4001". Port 0 picks a free port.
	Addr string

	// Session identifies the dev session. Defaults to a random UUID.
	Session string

	// Logger for server activity (default: stderr logger)
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Addr:   "127.0.0.1:4001",
		Logger: log.Default(),
	}
}

// NewServer creates a new feed server
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	session := config.Session
	if session == "" {
		session = uuid.New().String()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:      config.Addr,
		session:   session,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 100),
		joins:     make(chan *websocket.Conn),
		ctx:       ctx,
		cancel:    cancel,
		logger:    config.Logger,
	}
}

// Session returns the session id sent with every message.
func (s *Server) Session() string { return s.session }

// Start begins the HTTP server and WebSocket handler
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Dev feed listening on ws://%s/ws", ln.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "dev session ended")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.wg.Wait()
	return nil
}

// Publish broadcasts an event with fields as its data.
func (s *Server) Publish(kind string, fields map[string]any) {
	msg := Message{Type: MessageType(kind)}
	if len(fields) > 0 {
		data, err := json.Marshal(fields)
		if err != nil {
			s.logger.Printf("Failed to marshal %s event: %v", kind, err)
			return
		}
		msg.Data = data
	}
	s.Broadcast(msg)
}

// Broadcast sends a message to all connected clients
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
		return
	default:
		s.logger.Println("Warning: broadcast channel full, dropping message")
	}
}

func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case conn := <-s.joins:
			s.join(conn)

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}
			msg.Session = s.session
			s.remember(msg)

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Printf("Failed to marshal message: %v", err)
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			// Send to clients (outside read lock to avoid blocking broadcasts)
			for _, conn := range clients {
				if err := s.write(conn, data); err != nil {
					s.logger.Printf("Failed to send to client: %v", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

// join replays hello and history to conn, then adds it to the clients.
// It runs on the broadcast loop so no message lands between the replay
// and the first live broadcast.
func (s *Server) join(conn *websocket.Conn) {
	hello, _ := json.Marshal(Message{Type: MessageTypeHello, Session: s.session, Timestamp: time.Now()})
	if err := s.write(conn, hello); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "")
		return
	}
	for _, msg := range s.History() {
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		if err := s.write(conn, data); err != nil {
			_ = conn.Close(websocket.StatusInternalError, "")
			return
		}
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()
}

func (s *Server) remember(msg Message) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	s.history = append(s.history, msg)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
}

// History returns the messages a new client would be replayed.
func (s *Server) History() []Message {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	return append([]Message(nil), s.history...)
}

func (s *Server) write(conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	select {
	case s.joins <- conn:
	case <-s.ctx.Done():
		_ = conn.Close(websocket.StatusGoingAway, "dev session ended")
		return
	}

	// Clients never send anything; reading notices disconnects.
	s.readLoop(conn)
}

func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	_, exists := s.clients[conn]
	delete(s.clients, conn)
	s.clientsMu.Unlock()

	if exists {
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"session": s.session,
		"clients": s.ClientCount(),
	})
}

// Addr returns the server's listening address
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
