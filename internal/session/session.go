// Package session tracks who is signed in for one client.
//
// A Context starts in Loading and moves to Resolved once, on the first event
// from the identity provider. Later events update the identity but never
// bring it back to Loading.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Spok95/school-portal/internal/identity"
	"github.com/Spok95/school-portal/internal/logging"
)

var ErrLoading = errors.New("session is loading")

type State int

const (
	Loading State = iota
	Resolved
)

func (s State) String() string {
	if s == Resolved {
		return "resolved"
	}
	return "loading"
}

// Source pushes the current identity, nil when signed out.
type Source interface {
	Observe(fn func(*identity.Identity)) (unsubscribe func())
}

type Context struct {
	log *zap.Logger

	mu          sync.RWMutex
	state       State
	current     *identity.Identity
	ready       chan struct{}
	unsubscribe func()
	closed      bool
}

// Start subscribes to src. Close releases the subscription.
func Start(src Source, log *zap.Logger) *Context {
	c := &Context{log: logging.OrNop(log), ready: make(chan struct{})}
	unsub := src.Observe(c.update)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsub()
		return c
	}
	c.unsubscribe = unsub
	c.mu.Unlock()
	return c
}

func (c *Context) update(id *identity.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if id != nil {
		cp := *id
		id = &cp
	}
	c.current = id
	if c.state == Loading {
		c.state = Resolved
		close(c.ready)
		c.log.Debug("session resolved", zap.Bool("signed_in", id != nil))
	}
}

func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Current returns the signed-in identity, nil when nobody is signed in, or
// ErrLoading before the first provider event.
func (c *Context) Current() (*identity.Identity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == Loading {
		return nil, ErrLoading
	}
	if c.current == nil {
		return nil, nil
	}
	cp := *c.current
	return &cp, nil
}

// Wait blocks until the session is resolved or ctx is done.
func (c *Context) Wait(ctx context.Context) (*identity.Identity, error) {
	select {
	case <-c.ready:
		return c.Current()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops listening to the provider. It is safe to call more than once.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
