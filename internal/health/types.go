package health

import (
	"encoding/json"
	"time"

	"github.com/cinedeck/cinedeck/internal/endpoint"
)

// Status is the health state of an upstream service.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusOK      Status = "ok"
	StatusError   Status = "error"
)

// Item is the last known health of one upstream service.
type Item struct {
	Service   endpoint.Service `json:"service"`
	URL       string           `json:"url"`
	Status    Status           `json:"status"`
	Message   string           `json:"message,omitempty"`
	CheckedAt *time.Time       `json:"checkedAt,omitempty"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
}

// MarshalJSON omits the failure details of a healthy item.
func (i Item) MarshalJSON() ([]byte, error) {
	type Alias Item
	alias := Alias(i)

	if i.Status == StatusOK {
		alias.Timestamp = nil
		alias.Message = ""
	}

	return json.Marshal(alias)
}

// Summary is the health of every upstream service.
type Summary struct {
	Items     []Item `json:"items"`
	HasIssues bool   `json:"hasIssues"`
}

// UpdatePayload is the websocket payload for health changes.
type UpdatePayload struct {
	Service endpoint.Service `json:"service"`
	Status  Status           `json:"status"`
	Message string           `json:"message,omitempty"`
}
