package health

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cinedeck/cinedeck/internal/backend"
	"github.com/cinedeck/cinedeck/internal/endpoint"
)

// Check probes one upstream service.
type Check func(ctx context.Context) error

// Pinger fetches a service path and discards the response.
type Pinger interface {
	Ping(ctx context.Context, svc endpoint.Service, path string, query url.Values) error
}

// MoviesCheckID is a title id no catalogue holds. Looking it up costs one
// small 404 instead of the full catalogue.
const MoviesCheckID = "cinedeck-health-check"

// DefaultChecks probes each service with the cheapest read it serves.
func DefaultChecks(p Pinger, profileUserID string) map[endpoint.Service]Check {
	return map[endpoint.Service]Check{
		endpoint.Movies: func(ctx context.Context) error {
			return answered(p.Ping(ctx, endpoint.Movies, "/movies-series/"+MoviesCheckID, nil))
		},
		endpoint.People: func(ctx context.Context) error {
			return p.Ping(ctx, endpoint.People, "/people", url.Values{"q": {""}, "limit": {"1"}})
		},
		endpoint.Users: func(ctx context.Context) error {
			return p.Ping(ctx, endpoint.Users, "/myprofile", url.Values{"user_id": {profileUserID}})
		},
	}
}

// answered treats a 404 as proof the service is up.
func answered(err error) error {
	if errors.Is(err, backend.ErrNotFound) {
		return nil
	}
	return err
}

// Prober runs the checks and records their outcome in the health service.
type Prober struct {
	health *Service
	checks map[endpoint.Service]Check
	retry  RetryConfig
	logger zerolog.Logger
}

// NewProber creates a prober.
func NewProber(health *Service, checks map[endpoint.Service]Check, retry RetryConfig, logger zerolog.Logger) *Prober {
	return &Prober{
		health: health,
		checks: checks,
		retry:  retry,
		logger: logger.With().Str("component", "health-probe").Logger(),
	}
}

// ProbeAll checks every service concurrently. The returned error joins the
// failures; statuses are recorded either way.
func (p *Prober) ProbeAll(ctx context.Context) error {
	errs := make([]error, len(endpoint.Services))

	var g errgroup.Group
	for i, svc := range endpoint.Services {
		check, ok := p.checks[svc]
		if !ok {
			continue
		}
		g.Go(func() error {
			errs[i] = p.probe(ctx, svc, check)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (p *Prober) probe(ctx context.Context, svc endpoint.Service, check Check) error {
	err := WithRetry(ctx, "probe "+string(svc), p.retry, check, p.logger)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.health.SetError(svc, err.Error())
		return fmt.Errorf("%s: %w", svc, err)
	}
	p.health.ClearStatus(svc)
	return nil
}
