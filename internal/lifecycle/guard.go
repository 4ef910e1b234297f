// Package lifecycle tracks generations of asynchronous work so that results
// of superseded or cancelled work are never written to state.
package lifecycle

import (
	"context"
	"sync"
)

// Token identifies one generation of work.
type Token struct {
	gen uint64
	ctx context.Context
}

// Context is cancelled when the generation is superseded or ended.
func (t Token) Context() context.Context {
	if t.ctx == nil {
		return canceledContext
	}
	return t.ctx
}

// Generation returns the generation number.
func (t Token) Generation() uint64 {
	return t.gen
}

// Done reports whether the generation's context has ended.
func (t Token) Done() bool {
	return t.Context().Err() != nil
}

var canceledContext = func() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}()

// Guard serializes state writes against a current generation. Every method
// taking a callback runs it while holding the guard's lock, so the callback
// doubles as the critical section for the owner's state. Callbacks must not
// call back into the same Guard.
type Guard struct {
	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	settled chan struct{}
}

// Begin cancels the current generation, runs reset, and starts a new
// generation whose context derives from parent.
func (g *Guard) Begin(parent context.Context, reset func()) Token {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()
	g.gen++
	ctx, cancel := context.WithCancel(parent)
	g.cancel = cancel
	g.settled = make(chan struct{})
	if reset != nil {
		reset()
	}
	return Token{gen: g.gen, ctx: ctx}
}

// End cancels the current generation and runs reset. Tokens issued before
// End are rejected by every later Commit or Settle.
func (g *Guard) End(reset func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()
	g.gen++
	g.settled = make(chan struct{})
	close(g.settled)
	if reset != nil {
		reset()
	}
}

// Commit runs apply only if tok is the current generation and its context is
// still live. It reports whether apply ran.
func (g *Guard) Commit(tok Token, apply func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.currentLocked(tok) {
		return false
	}
	apply()
	return true
}

// Settle is Commit followed by marking the generation settled, which wakes
// Wait.
func (g *Guard) Settle(tok Token, apply func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.currentLocked(tok) {
		return false
	}
	apply()
	g.closeLatchLocked()
	return true
}

// Release settles a generation whose context ended without being superseded,
// typically because its parent was cancelled. It is a no-op for stale tokens.
func (g *Guard) Release(tok Token, apply func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if tok.gen != g.gen {
		return false
	}
	if apply != nil {
		apply()
	}
	g.closeLatchLocked()
	return true
}

// Current reports whether tok is the live generation.
func (g *Guard) Current(tok Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentLocked(tok)
}

// Read runs fn under the guard's lock.
func (g *Guard) Read(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}

// Wait blocks until the current generation settles or ctx ends. A generation
// superseded while waiting hands the wait over to its successor.
func (g *Guard) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		latch := g.settled
		g.mu.Unlock()

		if latch == nil {
			return nil
		}

		select {
		case <-latch:
			g.mu.Lock()
			same := g.settled == latch
			g.mu.Unlock()
			if same {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (g *Guard) currentLocked(tok Token) bool {
	return tok.gen != 0 && tok.gen == g.gen && tok.ctx != nil && tok.ctx.Err() == nil
}

func (g *Guard) stopLocked() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.closeLatchLocked()
}

func (g *Guard) closeLatchLocked() {
	if g.settled == nil {
		return
	}
	select {
	case <-g.settled:
	default:
		close(g.settled)
	}
}
