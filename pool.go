package redis

import (
	"fmt"
	"sync"
	"time"
)

// poolEntry pairs a pooled Connection with the last time it was returned,
// used by the idle reaper to decide what to shrink (§3 "Pool entry").
type poolEntry struct {
	conn      *Connection
	createdAt time.Time
	lastUsed  time.Time
}

// Stats reports a snapshot of Pool occupancy, grounded on db-bouncer's
// per-tenant Stats shape.
type Stats struct {
	Active    int
	Idle      int
	Total     int
	Waiting   int
	Exhausted int64
}

// Pool is a bounded elastic set of connections behind a checkout contract
// with timeouts, retries, and idle shrinkage (§4.5). Mutex+cond, grounded on
// db-bouncer's TenantPool: Signal (not Broadcast) wakes one waiter per
// Return to avoid a thundering herd, Broadcast is reserved for Close and
// checkout-timeout wakeups.
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond

	opt Options
	log *logSink
	met *poolMetrics

	idle    []*poolEntry
	active  map[*Connection]*poolEntry
	total   int
	waiting int

	exhausted int64
	closed    bool
	stopCh    chan struct{}

	// idleCheckInterval mirrors opt.MaxIdleTime: both the reaper's tick
	// period and the idle-age threshold it reaps against. Zero disables
	// the reaper goroutine entirely.
	idleCheckInterval time.Duration
}

// NewPool constructs a Pool from opt, dialing InitialPoolSize connections
// before it returns, and starts the idle reaper when opt.MaxIdleTime > 0.
func NewPool(opt Options) (*Pool, error) {
	p := &Pool{
		opt:               opt,
		idle:              make([]*poolEntry, 0, opt.InitialPoolSize),
		active:            make(map[*Connection]*poolEntry),
		stopCh:            make(chan struct{}),
		idleCheckInterval: opt.MaxIdleTime,
	}
	p.cond = sync.NewCond(&p.mu)

	if p.idleCheckInterval > 0 {
		go p.reapLoop()
	}

	for i := 0; i < opt.InitialPoolSize; i++ {
		conn, err := Dial(opt)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("redis: pre-warming connection %d/%d: %w", i+1, opt.InitialPoolSize, err)
		}
		conn.log = p.log
		p.idle = append(p.idle, &poolEntry{conn: conn, createdAt: time.Now(), lastUsed: time.Now()})
		p.total++
	}
	p.publishStats()
	return p, nil
}

// WithLogger attaches a structured log sink used for connects, reconnects
// and checkout waits.
func (p *Pool) WithLogger(l *logSink) *Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = l
	return p
}

// WithMetrics attaches Prometheus instrumentation; safe to call once before
// the pool sees traffic.
func (p *Pool) WithMetrics(m *poolMetrics) *Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.met = m
	return p
}

// Checkout acquires a connection, invokes fn, and releases the connection on
// every exit path (§4.5). When fn returns a connection error (any error
// other than a *ServerError, see isConnError), the connection is discarded
// rather than returned to the pool and, if retry_attempts remain, the whole
// operation retries on a fresh connection after retry_delay.
func (p *Pool) Checkout(fn func(c *Connection) error) error {
	attempts := p.opt.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(p.opt.RetryDelay)
		}

		start := time.Now()
		conn, err := p.acquire()
		p.met.observeCheckout(time.Since(start).Seconds())
		if err != nil {
			return err
		}

		fnErr := fn(conn)
		if fnErr != nil && isConnError(fnErr) {
			p.discard(conn)
			lastErr = fnErr
			continue
		}

		p.release(conn)
		return fnErr
	}
	return lastErr
}

// isConnError reports whether err looks like a transport failure rather
// than an ordinary server error reply, deciding whether Checkout discards
// the connection or returns it to the pool. A *ServerError is the server
// talking to us correctly and carries no implication about the stream.
func isConnError(err error) bool {
	if err == nil {
		return false
	}
	_, isServerError := err.(*ServerError)
	return !isServerError
}

func (p *Pool) acquire() (*Connection, error) {
	deadline := time.Now().Add(p.opt.CheckoutTimeout)

	p.mu.Lock()
	for {
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}

		for len(p.idle) > 0 {
			e := p.idle[len(p.idle)-1]
			p.idle = p.idle[:len(p.idle)-1]
			p.active[e.conn] = e
			p.publishStatsLocked()
			p.mu.Unlock()
			return e.conn, nil
		}

		if p.opt.MaxPoolSize <= 0 || p.total < p.opt.MaxPoolSize {
			p.total++
			p.mu.Unlock()

			conn, err := Dial(p.opt)
			if err != nil {
				p.mu.Lock()
				p.total--
				p.mu.Unlock()
				return nil, err
			}
			conn.log = p.log

			p.mu.Lock()
			p.active[conn] = &poolEntry{conn: conn, createdAt: time.Now(), lastUsed: time.Now()}
			p.publishStatsLocked()
			p.mu.Unlock()
			return conn, nil
		}

		p.waiting++
		p.exhausted++
		p.met.incExhausted()
		p.publishStatsLocked()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			p.waiting--
			p.mu.Unlock()
			return nil, ErrPoolTimeout
		}

		timer := time.AfterFunc(remaining, func() { p.cond.Broadcast() })
		p.log.debugf("redis: pool checkout waiting (%d already waiting)", p.waiting)
		p.cond.Wait()
		timer.Stop()
		p.waiting--

		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}
		if time.Now().After(deadline) {
			p.mu.Unlock()
			return nil, ErrPoolTimeout
		}
	}
}

// release returns conn to the idle list, signaling one waiter. Extra idle
// connections beyond max_idle_pool_size are closed immediately rather than
// left for the reaper, matching §4.5's "extra connections closed on
// return".
func (p *Pool) release(conn *Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.active[conn]
	if !ok {
		return
	}
	delete(p.active, conn)

	if p.closed {
		conn.Close()
		p.total--
		p.cond.Signal()
		return
	}

	if p.opt.MaxIdlePoolSize > 0 && len(p.idle) >= p.opt.MaxIdlePoolSize {
		conn.Close()
		p.total--
		p.cond.Signal()
		return
	}

	e.lastUsed = time.Now()
	p.idle = append(p.idle, e)
	p.publishStatsLocked()
	p.cond.Signal()
}

// discard closes conn and removes it from the pool entirely, used when a
// caller observed a transport failure and the stream can't be trusted.
func (p *Pool) discard(conn *Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.active[conn]; ok {
		delete(p.active, conn)
		p.total--
	}
	conn.Close()
	p.publishStatsLocked()
	p.cond.Signal()
}

// Stats returns a point-in-time snapshot of pool occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Active:    len(p.active),
		Idle:      len(p.idle),
		Total:     p.total,
		Waiting:   p.waiting,
		Exhausted: p.exhausted,
	}
}

// Close stops the reaper, closes every idle connection, and refuses further
// checkouts. Active connections are closed as they're released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.stopCh)

	for _, e := range p.idle {
		e.conn.Close()
		p.total--
	}
	p.idle = p.idle[:0]
	p.cond.Broadcast()
	p.mu.Unlock()
	return nil
}

func (p *Pool) reapLoop() {
	ticker := time.NewTicker(p.idleCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.reapIdle()
		case <-p.stopCh:
			return
		}
	}
}

// reapIdle closes idle connections beyond InitialPoolSize that have sat
// unused for longer than opt.MaxIdleTime (also the reaper's tick period,
// matching db-bouncer's "idle longer than one interval" shrink policy) — it
// never reaps below InitialPoolSize. Only called when MaxIdleTime > 0;
// reapLoop is never started otherwise, so MaxIdleTime == 0 fully disables
// idle-time-based shrinkage (connections beyond max_idle_pool_size are
// still closed immediately on release, per §4.5).
func (p *Pool) reapIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.idle) <= p.opt.InitialPoolSize {
		return
	}

	now := time.Now()
	kept := make([]*poolEntry, 0, len(p.idle))
	excess := len(p.idle) - p.opt.InitialPoolSize
	reaped := 0
	for i, e := range p.idle {
		if i < excess && reaped < excess && now.Sub(e.lastUsed) >= p.idleCheckInterval {
			e.conn.Close()
			p.total--
			reaped++
			continue
		}
		kept = append(kept, e)
	}
	p.idle = kept
	p.publishStatsLocked()
}

func (p *Pool) publishStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publishStatsLocked()
}

func (p *Pool) publishStatsLocked() {
	p.met.setActive(len(p.active))
	p.met.setIdle(len(p.idle))
	p.met.setWaiting(p.waiting)
}
