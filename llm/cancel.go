package llm

import "sync"

// CancelToken is a single-use, observable cancellation signal passed to
// every capability call and on to tool handlers. It is distinct from a
// context.Context deadline: cancelling a token always surfaces as
// KindCancelled, never KindTimeout.
type CancelToken struct {
	mu        sync.Mutex
	cancelled bool
	reason    string
	done      chan struct{}
	callbacks []func(reason string)
}

// NewCancelToken creates an unset CancelToken.
func NewCancelToken() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

// Cancel transitions the token to cancelled, recording reason. Idempotent:
// subsequent calls are no-ops. Registered callbacks run synchronously, in
// registration order, on the first call only.
func (c *CancelToken) Cancel(reason string) {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	c.reason = reason
	callbacks := c.callbacks
	c.callbacks = nil
	close(c.done)
	c.mu.Unlock()

	for _, cb := range callbacks {
		cb(reason)
	}
}

// IsCancelled reports whether Cancel has been called.
func (c *CancelToken) IsCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// Reason returns the reason passed to Cancel, or "" if not cancelled.
func (c *CancelToken) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Done returns a channel closed when the token is cancelled. Suitable for
// use in a select alongside context.Context.Done() and I/O channels.
func (c *CancelToken) Done() <-chan struct{} {
	return c.done
}

// OnCancel registers cb to run when Cancel is first called. If the token is
// already cancelled, cb runs synchronously before OnCancel returns.
func (c *CancelToken) OnCancel(cb func(reason string)) {
	c.mu.Lock()
	if c.cancelled {
		reason := c.reason
		c.mu.Unlock()
		cb(reason)
		return
	}
	c.callbacks = append(c.callbacks, cb)
	c.mu.Unlock()
}

// Err returns a KindCancelled *Error if the token is cancelled, else nil.
// Capability implementations check this at every suspension point.
func (c *CancelToken) Err() error {
	if !c.IsCancelled() {
		return nil
	}
	reason := c.Reason()
	if reason == "" {
		reason = "operation cancelled"
	}
	return NewError(KindCancelled, "%s", reason)
}
