package health

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinedeck/cinedeck/internal/endpoint"
	"github.com/cinedeck/cinedeck/internal/observability"
)

// Broadcaster sends messages to every connected websocket client.
type Broadcaster interface {
	Broadcast(msgType string, payload any) error
}

// Service holds the in-memory health of the upstream services.
type Service struct {
	items       map[endpoint.Service]*Item
	mu          sync.RWMutex
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewService creates a health service with every upstream in unknown state.
func NewService(urls map[endpoint.Service]string, logger zerolog.Logger) *Service {
	s := &Service{
		items:  make(map[endpoint.Service]*Item, len(endpoint.Services)),
		logger: logger.With().Str("component", "health").Logger(),
	}
	for _, svc := range endpoint.Services {
		s.items[svc] = &Item{Service: svc, URL: urls[svc], Status: StatusUnknown}
	}
	return s
}

// SetBroadcaster sets the websocket broadcaster for status changes.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetError marks svc unhealthy.
func (s *Service) SetError(svc endpoint.Service, message string) {
	s.setStatus(svc, StatusError, message)
}

// ClearStatus marks svc healthy.
func (s *Service) ClearStatus(svc endpoint.Service) {
	s.setStatus(svc, StatusOK, "")
}

func (s *Service) setStatus(svc endpoint.Service, status Status, message string) {
	now := time.Now()

	s.mu.Lock()
	item, exists := s.items[svc]
	if !exists {
		s.mu.Unlock()
		s.logger.Warn().Str("service", string(svc)).Msg("Attempted to update status for unknown service")
		return
	}

	item.CheckedAt = &now
	up := 0.0
	if status == StatusOK {
		up = 1
	}
	observability.UpstreamUp.WithLabelValues(string(svc)).Set(up)

	if item.Status == status && item.Message == message {
		s.mu.Unlock()
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message
	if status != StatusOK {
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}
	s.mu.Unlock()

	s.logger.Info().
		Str("service", string(svc)).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")

	if s.broadcaster != nil {
		_ = s.broadcaster.Broadcast("health:updated", UpdatePayload{
			Service: svc,
			Status:  status,
			Message: message,
		})
	}
}

// Get returns a copy of the item for svc.
func (s *Service) Get(svc endpoint.Service) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[svc]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// Summary returns every item in service order.
func (s *Service) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := Summary{Items: make([]Item, 0, len(s.items))}
	for _, svc := range endpoint.Services {
		item, ok := s.items[svc]
		if !ok {
			continue
		}
		summary.Items = append(summary.Items, *item)
		if item.Status == StatusError {
			summary.HasIssues = true
		}
	}
	return summary
}
