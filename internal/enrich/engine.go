// Package enrich resolves cross-references between the catalogue services:
// cast and crew names into people, and title references into titles.
package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/cinedeck/cinedeck/internal/backend"
	"github.com/cinedeck/cinedeck/internal/catalog"
	"github.com/cinedeck/cinedeck/internal/observability"
)

// PeopleSource looks people up by name.
type PeopleSource interface {
	// SearchByName returns nil when the service has no match.
	SearchByName(ctx context.Context, name string) (*catalog.Person, error)
}

// TitleSource reads titles from the catalogue.
type TitleSource interface {
	GetTitle(ctx context.Context, id string) (*catalog.Title, error)
	ListTitles(ctx context.Context, kind catalog.Kind) ([]catalog.Title, error)
}

// Config tunes the fan-out.
type Config struct {
	// MaxConcurrency caps in-flight fetches per cycle. Zero means unbounded.
	MaxConcurrency int
}

// Engine fans out to the people and movies services.
type Engine struct {
	people   PeopleSource
	titles   TitleSource
	limit    int
	inflight singleflight.Group
	logger   zerolog.Logger
}

// NewEngine creates a new enrichment engine.
func NewEngine(people PeopleSource, titles TitleSource, cfg Config, logger zerolog.Logger) *Engine {
	limit := cfg.MaxConcurrency
	if limit < 0 {
		limit = 0
	}
	return &Engine{
		people: people,
		titles: titles,
		limit:  limit,
		logger: logger.With().Str("component", "enrich").Logger(),
	}
}

type outcome[R any] struct {
	value R
	err   error
}

// fanOut runs fetch once per key and waits for all of them. Failures never
// cancel siblings; each outcome lands at its key's index.
func fanOut[K, R any](ctx context.Context, limit int, keys []K, fetch func(context.Context, K) (R, error)) []outcome[R] {
	results := make([]outcome[R], len(keys))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, key := range keys {
		g.Go(func() error {
			value, err := fetch(ctx, key)
			results[i] = outcome[R]{value: value, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// searchPerson de-duplicates concurrent lookups of the same name across
// cycles. A shared call cancelled by another caller is retried under ctx.
func (e *Engine) searchPerson(ctx context.Context, name string) (*catalog.Person, error) {
	ch := e.inflight.DoChan("person:"+catalog.NameKey(name), func() (any, error) {
		return e.people.SearchByName(ctx, name)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if isCancelled(res.Err) && ctx.Err() == nil {
				return e.people.SearchByName(ctx, name)
			}
			return nil, res.Err
		}
		person, _ := res.Val.(*catalog.Person)
		if person == nil {
			return nil, nil
		}
		clone := *person
		return &clone, nil
	}
}

func (e *Engine) recordFetch(kind string, err error) {
	outcome := observability.OutcomeOK
	switch {
	case err == nil:
	case isCancelled(err):
		outcome = observability.OutcomeCancelled
	case errors.Is(err, backend.ErrNotFound):
		outcome = observability.OutcomeNotFound
	default:
		outcome = observability.OutcomeError
	}
	observability.EnrichmentFetches.WithLabelValues(kind, outcome).Inc()
}

func observeCycle(kind string, start time.Time) {
	observability.EnrichmentDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
