package host

import "sync"

// ReinitFunc is a deferred reinitialization callback. count is the
// reinitialization pass it runs in, starting at 1.
type ReinitFunc func(count int)

// Reinitializer queues callbacks that want another chance to initialize once
// more of the host is available. Each registration runs once.
type Reinitializer struct {
	mu      sync.Mutex
	pending []ReinitFunc
	passes  int
}

// Register queues fn.
func (r *Reinitializer) Register(fn ReinitFunc) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, fn)
}

// Pending returns the number of queued callbacks.
func (r *Reinitializer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Run invokes and dequeues every callback queued so far, in registration
// order, and returns how many ran. Callbacks may re-register themselves for
// the next pass.
func (r *Reinitializer) Run() int {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	if len(batch) > 0 {
		r.passes++
	}
	pass := r.passes
	r.mu.Unlock()

	for _, fn := range batch {
		fn(pass)
	}
	return len(batch)
}
