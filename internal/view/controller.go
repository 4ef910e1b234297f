// Package view holds the page-level state controllers.
package view

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/cinedeck/cinedeck/internal/lifecycle"
	"github.com/cinedeck/cinedeck/internal/observability"
)

// Phase is the lifecycle phase of a page's primary entity.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// Settled reports whether the phase is terminal for a navigation.
func (p Phase) Settled() bool {
	return p == PhaseReady || p == PhaseFailed
}

// State is a snapshot of a controller.
type State[T any] struct {
	Phase Phase      `json:"phase"`
	Param string     `json:"param"`
	Data  *T         `json:"data,omitempty"`
	Error *PageError `json:"error,omitempty"`
}

// ControllerConfig wires a controller to its page.
type ControllerConfig[T any] struct {
	// Route labels logs and metrics.
	Route Route
	// Load fetches the primary entity for a navigation parameter. Failures
	// should be returned as *PageError.
	Load func(ctx context.Context, param string) (*T, error)
	// OnReady runs inside the ready transition with the generation's context,
	// typically to start dependent enrichment.
	OnReady func(ctx context.Context, param string, data *T)
	// OnReset runs inside every navigation and unmount, after the previous
	// generation has been cancelled.
	OnReset func()
	// Notify is called after every state change. It must not block or read
	// the controller synchronously.
	Notify func()
}

// Controller drives one page through idle, loading, ready and failed. Each
// navigation is a generation; writes from superseded generations are dropped.
type Controller[T any] struct {
	guard  lifecycle.Guard
	state  State[T]
	cfg    ControllerConfig[T]
	logger zerolog.Logger
}

// NewController creates an idle controller.
func NewController[T any](cfg ControllerConfig[T], logger zerolog.Logger) *Controller[T] {
	return &Controller[T]{
		state:  State[T]{Phase: PhaseIdle},
		cfg:    cfg,
		logger: logger.With().Str("route", string(cfg.Route)).Logger(),
	}
}

// Navigate cancels the current generation and starts loading param. State
// from the previous parameter is cleared immediately.
func (c *Controller[T]) Navigate(parent context.Context, param string) {
	tok := c.guard.Begin(parent, func() {
		c.state = State[T]{Phase: PhaseLoading, Param: param}
		if c.cfg.OnReset != nil {
			c.cfg.OnReset()
		}
	})
	c.changed()

	c.logger.Debug().Str("param", param).Uint64("generation", tok.Generation()).Msg("Navigating")
	go c.run(tok, param)
}

// Unmount cancels the current generation and returns to idle. Late results
// are rejected.
func (c *Controller[T]) Unmount() {
	c.guard.End(func() {
		c.state = State[T]{Phase: PhaseIdle}
		if c.cfg.OnReset != nil {
			c.cfg.OnReset()
		}
	})
	c.changed()
}

// Snapshot returns the current state.
func (c *Controller[T]) Snapshot() State[T] {
	var s State[T]
	c.guard.Read(func() { s = c.state })
	return s
}

// Wait blocks until the current navigation settles or ctx ends.
func (c *Controller[T]) Wait(ctx context.Context) error {
	return c.guard.Wait(ctx)
}

func (c *Controller[T]) run(tok lifecycle.Token, param string) {
	ctx := tok.Context()
	data, err := c.cfg.Load(ctx, param)

	if ctx.Err() != nil {
		c.abandon(tok, param)
		return
	}

	if err != nil {
		pageErr := c.classify(err)
		if c.guard.Settle(tok, func() {
			c.state.Phase = PhaseFailed
			c.state.Error = pageErr
		}) {
			observability.PageLoads.WithLabelValues(string(c.cfg.Route), string(pageErr.Kind)).Inc()
			c.logger.Warn().Err(err).Str("param", param).Str("kind", string(pageErr.Kind)).Msg("Page failed to load")
			c.changed()
			return
		}
		c.abandon(tok, param)
		return
	}

	if c.guard.Settle(tok, func() {
		c.state.Phase = PhaseReady
		c.state.Data = data
		if c.cfg.OnReady != nil {
			c.cfg.OnReady(ctx, param, data)
		}
	}) {
		observability.PageLoads.WithLabelValues(string(c.cfg.Route), "ok").Inc()
		c.changed()
		return
	}
	c.abandon(tok, param)
}

// abandon handles a generation whose context ended. Superseded generations
// are ignored; one cancelled by its parent returns to idle.
func (c *Controller[T]) abandon(tok lifecycle.Token, param string) {
	if c.guard.Release(tok, func() {
		c.state = State[T]{Phase: PhaseIdle}
		if c.cfg.OnReset != nil {
			c.cfg.OnReset()
		}
	}) {
		observability.PageLoads.WithLabelValues(string(c.cfg.Route), "cancelled").Inc()
		c.logger.Debug().Str("param", param).Msg("Navigation cancelled")
		c.changed()
	}
}

func (c *Controller[T]) classify(err error) *PageError {
	var pageErr *PageError
	if errors.As(err, &pageErr) {
		return pageErr
	}
	return &PageError{Kind: KindTransport, Message: err.Error()}
}

func (c *Controller[T]) changed() {
	if c.cfg.Notify != nil {
		c.cfg.Notify()
	}
}
