package redis

import "fmt"

// SubscriptionCallbacks are invoked synchronously from the dispatch loop
// (§4.9). A nil callback is simply skipped for that frame kind.
type SubscriptionCallbacks struct {
	OnSubscribe   func(sub *Subscription, channel string, remaining int64)
	OnMessage     func(sub *Subscription, channel string, payload []byte)
	OnPMessage    func(sub *Subscription, channel string, payload []byte, pattern string)
	OnUnsubscribe func(sub *Subscription, channel string, remaining int64)
}

// Subscription runs the subscribed-mode dispatch loop (§4.9): within it only
// subscribe/unsubscribe variants and PING are permitted. The connection
// returns to ModeIdle once the remaining subscription count reaches zero,
// whether driven by the server or by the caller issuing an unsubscribe from
// inside a callback.
type Subscription struct {
	conn      *Connection
	cb        SubscriptionCallbacks
	remaining int64
}

// Subscribe sends SUBSCRIBE for the given channels and runs the dispatch
// loop until an unsubscribe frame reports zero remaining subscriptions.
// Callbacks can end the loop through Subscription.Unsubscribe or
// PUnsubscribe; Subscription has no method to add channels or patterns
// once the loop is running.
func (c *Connection) Subscribe(cb SubscriptionCallbacks, channels ...string) error {
	return c.runSubscription(cb, "SUBSCRIBE", channels)
}

// PSubscribe sends PSUBSCRIBE for the given patterns and runs the same
// dispatch loop, routing matched frames through OnPMessage.
func (c *Connection) PSubscribe(cb SubscriptionCallbacks, patterns ...string) error {
	return c.runSubscription(cb, "PSUBSCRIBE", patterns)
}

func (c *Connection) runSubscription(cb SubscriptionCallbacks, verb string, targets []string) error {
	if err := c.reconnectIfBroken(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode = ModeSubscribed
	defer func() { c.mode = ModeIdle }()

	args := make([]interface{}, 0, len(targets)+1)
	args = append(args, verb)
	for _, t := range targets {
		args = append(args, t)
	}
	if err := Encode(c.w, commandArgs(args)); err != nil {
		c.broken = true
		return err
	}
	if err := c.w.Flush(); err != nil {
		c.broken = true
		return err
	}

	sub := &Subscription{conn: c, cb: cb}
	return sub.dispatch()
}

// Unsubscribe sends UNSUBSCRIBE from within a callback running inside
// dispatch. The connection's mutex is already held by the dispatch loop's
// goroutine, so this writes directly rather than going through Run.
func (s *Subscription) Unsubscribe(channels ...string) error {
	return s.sendWhileLocked("UNSUBSCRIBE", channels)
}

// PUnsubscribe sends PUNSUBSCRIBE from within a callback, mirroring
// Unsubscribe.
func (s *Subscription) PUnsubscribe(patterns ...string) error {
	return s.sendWhileLocked("PUNSUBSCRIBE", patterns)
}

func (s *Subscription) sendWhileLocked(verb string, targets []string) error {
	args := make([]interface{}, 0, len(targets)+1)
	args = append(args, verb)
	for _, t := range targets {
		args = append(args, t)
	}
	if err := Encode(s.conn.w, commandArgs(args)); err != nil {
		s.conn.broken = true
		return err
	}
	if err := s.conn.w.Flush(); err != nil {
		s.conn.broken = true
		return err
	}
	return nil
}

// dispatch reads frames until the remaining subscription count returns to
// zero (§4.9's state machine exit condition). Caller holds c.mu.
func (s *Subscription) dispatch() error {
	for {
		v, err := Decode(s.conn.r)
		if err != nil {
			s.conn.broken = true
			return err
		}
		if v.Type != TypeArray || len(v.Array) < 3 {
			return fmt.Errorf("redis: malformed subscription frame: %+v", v)
		}

		kind := v.Array[0].String()
		switch kind {
		case "subscribe", "psubscribe":
			channel := v.Array[1].String()
			s.remaining = v.Array[2].Integer
			if s.cb.OnSubscribe != nil {
				s.cb.OnSubscribe(s, channel, s.remaining)
			}
		case "unsubscribe", "punsubscribe":
			channel := v.Array[1].String()
			s.remaining = v.Array[2].Integer
			if s.cb.OnUnsubscribe != nil {
				s.cb.OnUnsubscribe(s, channel, s.remaining)
			}
			if s.remaining == 0 {
				return nil
			}
		case "message":
			if s.cb.OnMessage != nil {
				s.cb.OnMessage(s, v.Array[1].String(), v.Array[2].Bytes())
			}
		case "pmessage":
			if len(v.Array) < 4 {
				return fmt.Errorf("redis: malformed pmessage frame: %+v", v)
			}
			if s.cb.OnPMessage != nil {
				s.cb.OnPMessage(s, v.Array[2].String(), v.Array[3].Bytes(), v.Array[1].String())
			}
		default:
			return fmt.Errorf("redis: unexpected subscription frame kind %q", kind)
		}
	}
}

// commandArgs converts a mixed-type argument slice into wire-ready byte
// slices, reusing Command's own coercion rules.
func commandArgs(args []interface{}) [][]byte {
	out := make([][]byte, len(args))
	for i, a := range args {
		out[i] = toArg(a)
	}
	return out
}
