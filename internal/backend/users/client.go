// Package users reads profiles from the users service.
package users

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/cinedeck/cinedeck/internal/backend"
	"github.com/cinedeck/cinedeck/internal/catalog"
	"github.com/cinedeck/cinedeck/internal/endpoint"
)

// DefaultUserID is the profile shown when none is configured.
const DefaultUserID = "U000000000001"

// Client is a users service client.
type Client struct {
	backend *backend.Client
	logger  zerolog.Logger
}

// NewClient creates a new users client.
func NewClient(b *backend.Client, logger zerolog.Logger) *Client {
	return &Client{
		backend: b,
		logger:  logger.With().Str("component", "users").Logger(),
	}
}

// GetProfile fetches the profile of userID.
func (c *Client) GetProfile(ctx context.Context, userID string) (*catalog.Profile, error) {
	if userID == "" {
		userID = DefaultUserID
	}

	params := url.Values{}
	params.Set("user_id", userID)

	var profile catalog.Profile
	if err := c.backend.GetJSON(ctx, endpoint.Users, "/myprofile", params, &profile); err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}

	c.logger.Debug().
		Str("userId", userID).
		Int("favorites", len(profile.Favorites)).
		Int("reviews", len(profile.Reviews)).
		Msg("Fetched profile")
	return &profile, nil
}
