// Package movies reads titles from the movies/series service.
package movies

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

// ErrMissingID is returned when a title is requested without an id.
var ErrMissingID = errors.New("title id is required")

// Client is a movies/series service client.
type Client struct {
	backend *backend.Client
	logger  zerolog.Logger
}

// NewClient creates a new movies client.
func NewClient(b *backend.Client, logger zerolog.Logger) *Client {
	return &Client{
		backend: b,
		logger:  logger.With().Str("component", "movies").Logger(),
	}
}

func listPath(kind catalog.Kind) string {
	switch kind {
	case catalog.KindMovie:
		return "/movies"
	case catalog.KindSeries:
		return "/series"
	default:
		return "/movies-series"
	}
}

// ListTitles fetches the whole catalogue, optionally filtered by type.
func (c *Client) ListTitles(ctx context.Context, kind catalog.Kind) ([]catalog.Title, error) {
	titles, err := backend.GetList[catalog.Title](ctx, c.backend, endpoint.Movies, listPath(kind), nil)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}

	c.logger.Debug().Str("kind", string(kind)).Int("count", len(titles)).Msg("Fetched catalogue")
	return titles, nil
}

// GetTitle fetches a single title by id.
func (c *Client) GetTitle(ctx context.Context, id string) (*catalog.Title, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingID
	}

	var title catalog.Title
	if err := c.backend.GetJSON(ctx, endpoint.Movies, "/movies-series/"+url.PathEscape(id), nil, &title); err != nil {
		return nil, fmt.Errorf("get title %s: %w", id, err)
	}
	return &title, nil
}
