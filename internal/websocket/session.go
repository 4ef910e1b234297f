package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cinedeck/cinedeck/internal/view"
)

// Client message types.
const (
	TypeNavigate = "navigate"
	TypeUnmount  = "unmount"
)

// Server message types.
const (
	TypeSessionReady = "session:ready"
	TypePageState    = "page:state"
	TypeError        = "error"
)

// ClientMessage is a message received from the browser.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NavigatePayload selects a page and its parameter.
type NavigatePayload struct {
	Route string `json:"route"`
	ID    string `json:"id"`
}

// ErrorPayload reports a rejected client message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Session is one browser connection owning at most one mounted page.
// Page state changes mark the session dirty; the writer then sends the
// latest snapshot, so bursts of changes coalesce into one push.
type Session struct {
	id   string
	hub  *Hub
	conn *websocket.Conn

	send      chan []byte
	dirty     chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	page view.Page

	logger zerolog.Logger
}

func newSession(h *Hub, conn *websocket.Conn) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &Session{
		id:     id,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		dirty:  make(chan struct{}, 1),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		logger: h.logger.With().Str("session", id).Logger(),
	}
}

// enqueue queues a raw message. It reports false when the buffer is full.
func (s *Session) enqueue(data []byte) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// markDirty schedules a snapshot push. It never blocks.
func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// close stops the writer and cancels every page load of the session.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()

		s.mu.Lock()
		page := s.page
		s.mu.Unlock()
		if page != nil {
			page.Unmount()
		}
	})
}

func (s *Session) sendError(message string) {
	data, err := encode(TypeError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	if !s.enqueue(data) {
		s.logger.Warn().Msg("Send buffer full, dropping error message")
	}
}

func (s *Session) handleMessage(raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendError("invalid message")
		return
	}

	switch msg.Type {
	case TypeNavigate:
		var payload NavigatePayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				s.sendError("invalid navigate payload")
				return
			}
		}
		route, err := view.ParseRoute(payload.Route)
		if err != nil {
			s.sendError(err.Error())
			return
		}
		if err := s.navigate(route, payload.ID); err != nil {
			s.sendError(err.Error())
		}

	case TypeUnmount:
		s.mu.Lock()
		page := s.page
		s.mu.Unlock()
		if page != nil {
			page.Unmount()
		}

	default:
		s.sendError("unknown message type " + msg.Type)
	}
}

// navigate mounts route when it differs from the current page, then starts
// loading id. Navigating within a route supersedes the previous load.
func (s *Session) navigate(route view.Route, id string) error {
	s.mu.Lock()
	page := s.page
	if page == nil || page.Route() != route {
		next, err := s.hub.pages.NewPage(route, s.markDirty)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.page = next
		s.mu.Unlock()
		if page != nil {
			page.Unmount()
		}
		page = next
	} else {
		s.mu.Unlock()
	}

	s.logger.Debug().Str("route", string(route)).Str("id", id).Msg("Navigate")
	page.Navigate(s.ctx, id)
	return nil
}

func (s *Session) snapshot() ([]byte, bool) {
	s.mu.Lock()
	page := s.page
	s.mu.Unlock()
	if page == nil {
		return nil, false
	}

	data, err := encode(TypePageState, page.Snapshot())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode page snapshot")
		return nil, false
	}
	return data, true
}

// readPump handles client messages until the connection fails.
func (s *Session) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.stopped:
			s.close()
		}
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Debug().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}
		s.handleMessage(message)
	}
}

// writePump is the only writer of the connection.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	if ready, err := encode(TypeSessionReady, map[string]string{"id": s.id}); err == nil {
		if !s.write(websocket.TextMessage, ready) {
			return
		}
	}

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-s.send:
			if !s.write(websocket.TextMessage, message) {
				return
			}

		case <-s.dirty:
			data, ok := s.snapshot()
			if !ok {
				continue
			}
			if !s.write(websocket.TextMessage, data) {
				return
			}

		case <-ticker.C:
			if !s.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (s *Session) write(messageType int, data []byte) bool {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(messageType, data); err != nil {
		s.logger.Debug().Err(err).Msg("Write failed")
		return false
	}
	return true
}
