package enrich

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cinedeck/cinedeck/internal/lifecycle"
)

// Status is the progress of a tracker.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSettled Status = "settled"
)

// TrackerState is a snapshot of a tracker.
type TrackerState[R any] struct {
	Status Status `json:"status"`
	Key    string `json:"key,omitempty"`
	Result *R     `json:"result,omitempty"`
}

// Tracker holds the progressive enrichment state of one page. Each Start
// supersedes the previous cycle; results of superseded cycles are dropped.
type Tracker[R any] struct {
	guard  lifecycle.Guard
	state  TrackerState[R]
	notify func()
	logger zerolog.Logger
}

// NewTracker creates an idle tracker. notify, when set, is called after every
// state change.
func NewTracker[R any](notify func(), logger zerolog.Logger) *Tracker[R] {
	return &Tracker[R]{
		state:  TrackerState[R]{Status: StatusIdle},
		notify: notify,
		logger: logger,
	}
}

// Start begins a new cycle for key under parent, cancelling any prior cycle.
func (t *Tracker[R]) Start(parent context.Context, key string, run func(context.Context) (*R, error)) {
	tok := t.guard.Begin(parent, func() {
		t.state = TrackerState[R]{Status: StatusLoading, Key: key}
	})
	t.changed()

	go func() {
		result, err := run(tok.Context())
		if err != nil && !isCancelled(err) {
			t.logger.Warn().Err(err).Str("key", key).Msg("Enrichment cycle failed")
		}

		if err == nil || !tok.Done() {
			if t.guard.Settle(tok, func() {
				t.state = TrackerState[R]{Status: StatusSettled, Key: key, Result: result}
			}) {
				t.changed()
				return
			}
		}

		if t.guard.Release(tok, func() {
			t.state = TrackerState[R]{Status: StatusIdle}
		}) {
			t.logger.Debug().Str("key", key).Msg("Enrichment cycle abandoned")
			t.changed()
		}
	}()
}

// Reset cancels the current cycle and returns to idle.
func (t *Tracker[R]) Reset() {
	t.guard.End(func() {
		t.state = TrackerState[R]{Status: StatusIdle}
	})
	t.changed()
}

// Snapshot returns the current state.
func (t *Tracker[R]) Snapshot() TrackerState[R] {
	var s TrackerState[R]
	t.guard.Read(func() { s = t.state })
	return s
}

// Wait blocks until the current cycle settles or ctx ends.
func (t *Tracker[R]) Wait(ctx context.Context) error {
	return t.guard.Wait(ctx)
}

func (t *Tracker[R]) changed() {
	if t.notify != nil {
		t.notify()
	}
}
