package redis

import "sync"

// Future is a single-assignment slot filled once a pipelined command's
// reply arrives (§3 Future). Reading it before the owning Pipeline drains
// returns ErrFutureUnresolved instead of blocking.
type Future struct {
	mu       sync.Mutex
	resolved bool
	value    Value
	err      error
}

// Value returns the resolved reply, or ErrFutureUnresolved if the Pipeline
// hasn't drained yet. A server-level error reply resolves as a non-nil
// Value with Type == TypeError, not as err here; err here is reserved for
// resolution failures (e.g. a read error at this future's index).
func (f *Future) Value() (Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.resolved {
		return Value{}, ErrFutureUnresolved
	}
	return f.value, f.err
}

// resolve is called exactly once by the draining Pipeline.
func (f *Future) resolve(v Value, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = true
	f.value = v
	f.err = err
}
