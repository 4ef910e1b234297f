// Package people reads cast and crew records from the people service.
package people

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cinedeck/cinedeck/internal/backend"
	"github.com/cinedeck/cinedeck/internal/catalog"
	"github.com/cinedeck/cinedeck/internal/endpoint"
)

// ErrMissingID is returned when a person is requested without an id.
var ErrMissingID = errors.New("person id is required")

// Client is a people service client.
type Client struct {
	backend *backend.Client
	logger  zerolog.Logger
}

// NewClient creates a new people client.
func NewClient(b *backend.Client, logger zerolog.Logger) *Client {
	return &Client{
		backend: b,
		logger:  logger.With().Str("component", "people").Logger(),
	}
}

// SearchByName returns the first person the service matches for name, or nil
// when there is no match.
func (c *Client) SearchByName(ctx context.Context, name string) (*catalog.Person, error) {
	params := url.Values{}
	params.Set("q", name)
	params.Set("limit", "1")

	results, err := backend.GetList[catalog.Person](ctx, c.backend, endpoint.People, "/people", params)
	if err != nil {
		return nil, fmt.Errorf("search person %q: %w", name, err)
	}
	if len(results) == 0 {
		c.logger.Debug().Str("name", name).Msg("No person matched name")
		return nil, nil
	}
	return &results[0], nil
}

// GetPerson fetches a person by id. The service accepts either its own id or
// an IMDb name id.
func (c *Client) GetPerson(ctx context.Context, id string) (*catalog.Person, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingID
	}

	var person catalog.Person
	if err := c.backend.GetJSON(ctx, endpoint.People, "/people/"+url.PathEscape(id), nil, &person); err != nil {
		return nil, fmt.Errorf("get person %s: %w", id, err)
	}
	return &person, nil
}
