// Package channel coordinates in-flight requests so that each logical
// channel has at most one request allowed to apply its results.
package channel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Name identifies a logical request slot.
type Name string

const (
	Suggestions     Name = "suggestions"
	Search          Name = "search"
	Recommendations Name = "recommendations"
)

// ErrSuperseded is the cancellation cause of a token replaced by a newer
// request on the same channel, or cancelled explicitly.
var ErrSuperseded = errors.New("request superseded")

// Token is one request's right to apply its results.
type Token struct {
	channel Name
	seq     uint64
	ctx     context.Context
	cancel  context.CancelCauseFunc
}

// Channel returns the channel the token was issued on.
func (t *Token) Channel() Name { return t.channel }

// Seq returns the coordinator-wide issue number of the token.
func (t *Token) Seq() uint64 { return t.seq }

// Context is cancelled when the token is superseded or released.
// Pass it to the network call.
func (t *Token) Context() context.Context { return t.ctx }

// Cancelled reports whether the token has been cancelled.
func (t *Token) Cancelled() bool { return t.ctx.Err() != nil }

// Superseded reports whether the token was cancelled by the coordinator,
// as opposed to its parent context ending.
func (t *Token) Superseded() bool {
	return errors.Is(context.Cause(t.ctx), ErrSuperseded)
}

// Coordinator tracks the current token of every channel.
type Coordinator struct {
	mu      sync.Mutex
	current map[Name]*Token
	seq     uint64
	log     *slog.Logger
}

// NewCoordinator creates a coordinator with no live tokens.
func NewCoordinator(log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		current: make(map[Name]*Token),
		log:     log,
	}
}

// Begin cancels the channel's live token, if any, and returns a new current
// token derived from parent.
func (c *Coordinator) Begin(parent context.Context, ch Name) *Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beginLocked(parent, ch)
}

// Chain begins a token on ch, as Begin does, but only while guard is still
// current. A follow-up for a superseded result is never started.
func (c *Coordinator) Chain(parent context.Context, guard *Token, ch Name) (*Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCurrentLocked(guard) {
		return nil, false
	}
	return c.beginLocked(parent, ch), true
}

func (c *Coordinator) beginLocked(parent context.Context, ch Name) *Token {
	if prev := c.current[ch]; prev != nil {
		prev.cancel(ErrSuperseded)
		c.log.Debug("request superseded", "channel", ch, "seq", prev.seq)
	}

	c.seq++
	ctx, cancel := context.WithCancelCause(parent)
	t := &Token{channel: ch, seq: c.seq, ctx: ctx, cancel: cancel}
	c.current[ch] = t
	return t
}

// Cancel cancels the channel's live token without issuing a new one.
// It reports whether there was a token to cancel.
func (c *Coordinator) Cancel(ch Name) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.current[ch]
	if prev == nil {
		return false
	}
	prev.cancel(ErrSuperseded)
	delete(c.current, ch)
	c.log.Debug("request cancelled", "channel", ch, "seq", prev.seq)
	return true
}

// isCurrent reports whether t is its channel's live, uncancelled token.
func (c *Coordinator) isCurrent(t *Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCurrentLocked(t)
}

func (c *Coordinator) isCurrentLocked(t *Token) bool {
	return t != nil && c.current[t.channel] == t && t.ctx.Err() == nil
}

// Apply runs fn only if t is still current. No Begin or Cancel can
// interleave with fn, so a stale completion can never overwrite state
// written on behalf of a newer request. fn must not call back into the
// coordinator. Apply reports whether fn ran.
func (c *Coordinator) Apply(t *Token, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCurrentLocked(t) {
		return false
	}
	fn()
	return true
}

// Release ends t. If t is still current the channel becomes empty.
// The token's context is cancelled to free its resources.
func (c *Coordinator) Release(t *Token) {
	if t == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current[t.channel] == t {
		delete(c.current, t.channel)
	}
	t.cancel(context.Canceled)
}

// Live returns the number of channels holding a live token.
func (c *Coordinator) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.current)
}
