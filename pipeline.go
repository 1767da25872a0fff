package redis

import "fmt"

// Pipeline queues commands for a single deferred flush (§4.3). It is only
// valid for the duration of one Connection.Pipeline block.
type Pipeline struct {
	conn    *Connection
	cmds    []Command
	futures []*Future
}

// Queue records cmd into the send buffer and returns its Future. Futures
// resolve positionally once the owning block commits.
func (p *Pipeline) Queue(cmd Command) *Future {
	f := &Future{}
	p.cmds = append(p.cmds, cmd)
	p.futures = append(p.futures, f)
	return f
}

// PipelineError reports that resolving the reply at Index failed; Cause is
// the underlying transport/protocol error.
type PipelineError struct {
	Index int
	Cause error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("redis: pipeline resolution error at index %d: %v", e.Index, e.Cause)
}

func (e *PipelineError) Unwrap() error { return e.Cause }

// Pipeline runs fn with a fresh Pipeline, then performs one flush and drains
// exactly len(queued) replies in send order, resolving each Future
// positionally (§4.3, invariant 1). A panic-free error from fn still forces
// the flush+drain (to keep the socket aligned) before fn's error is
// returned, chained with any drain failure.
func (c *Connection) Pipeline(fn func(p *Pipeline) error) error {
	if err := c.reconnectIfBroken(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode = ModePipelining
	defer func() { c.mode = ModeIdle }()

	p := &Pipeline{conn: c}
	blockErr := fn(p)
	drainErr := p.commit()

	if blockErr != nil {
		if drainErr != nil {
			return fmt.Errorf("%w (pipeline drain also failed: %v)", blockErr, drainErr)
		}
		return blockErr
	}
	return drainErr
}

// commit flushes every queued command in one write and drains exactly that
// many replies, resolving futures in order. Caller holds c.mu.
func (p *Pipeline) commit() error {
	c := p.conn
	for _, cmd := range p.cmds {
		if err := Encode(c.w, cmd.Args); err != nil {
			c.broken = true
			return p.failAll(0, err)
		}
	}
	if err := c.w.Flush(); err != nil {
		c.broken = true
		return p.failAll(0, err)
	}

	for i := range p.cmds {
		v, err := Decode(c.r)
		if err != nil {
			c.broken = true
			return p.failAll(i, err)
		}
		p.futures[i].resolve(v, nil)
	}
	return nil
}

// failAll resolves futures[from:] with the same wrapped cause and returns
// the PipelineError naming the first failing index.
func (p *Pipeline) failAll(from int, cause error) error {
	perr := &PipelineError{Index: from, Cause: cause}
	for i := from; i < len(p.futures); i++ {
		p.futures[i].resolve(Value{}, perr)
	}
	return perr
}
