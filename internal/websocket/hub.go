package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cinedeck/cinedeck/internal/observability"
	"github.com/cinedeck/cinedeck/internal/view"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope of every server message.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

func encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// PageFactory creates unmounted pages.
type PageFactory interface {
	NewPage(route view.Route, notify func()) (view.Page, error)
}

// Hub tracks the live sessions and fans broadcasts out to them.
type Hub struct {
	sessions   map[*Session]bool
	broadcast  chan []byte
	register   chan *Session
	unregister chan *Session
	stopped    chan struct{}
	mu         sync.RWMutex

	pages  PageFactory
	logger zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(pages PageFactory, logger zerolog.Logger) *Hub {
	return &Hub{
		sessions:   make(map[*Session]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		stopped:    make(chan struct{}),
		pages:      pages,
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

// Run processes registrations and broadcasts until ctx ends. Sessions still
// open at that point are closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for s := range h.sessions {
				delete(h.sessions, s)
				s.close()
				observability.WSConnections.Dec()
			}
			h.mu.Unlock()
			return

		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s] = true
			h.mu.Unlock()
			observability.WSConnections.Inc()

		case s := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.sessions[s]; ok {
				delete(h.sessions, s)
				observability.WSConnections.Dec()
			}
			h.mu.Unlock()
			s.close()

		case message := <-h.broadcast:
			h.mu.RLock()
			var slow []*Session
			for s := range h.sessions {
				if !s.enqueue(message) {
					slow = append(slow, s)
				}
			}
			h.mu.RUnlock()
			for _, s := range slow {
				h.logger.Warn().Str("session", s.id).Msg("Dropping slow session")
				s.close()
			}
		}
	}
}

// Broadcast sends a message to every connected session.
func (h *Hub) Broadcast(msgType string, payload any) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn().Str("type", msgType).Msg("Broadcast buffer full, dropping message")
	}
	return nil
}

// ClientCount returns the number of connected sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// HandleWebSocket upgrades the request and starts a page session.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	s := newSession(h, conn)
	select {
	case h.register <- s:
	case <-h.stopped:
		s.close()
		return conn.Close()
	}

	go s.writePump()
	go s.readPump()

	return nil
}
