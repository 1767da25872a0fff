package redis

import (
	"strconv"
)

// Client exposes run(command) (§4.6) by checking a connection out of a
// Pool, forwarding Pipeline/Transaction/Subscribe through the same checked
// out connection so every command in one block shares a socket.
type Client struct {
	pool *Pool
}

// NewClient builds a Client around a freshly constructed Pool for opt.
func NewClient(opt Options) (*Client, error) {
	pool, err := NewPool(opt)
	if err != nil {
		return nil, err
	}
	return &Client{pool: pool}, nil
}

// NewClientURI is a convenience wrapper around ParseURI + NewClient.
func NewClientURI(uri string) (*Client, error) {
	opt, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return NewClient(opt)
}

// WithLogger attaches a structured log sink to the underlying pool.
func (c *Client) WithLogger(l *logSink) *Client {
	c.pool.WithLogger(l)
	return c
}

// WithMetrics attaches Prometheus instrumentation to the underlying pool.
func (c *Client) WithMetrics(m *poolMetrics) *Client {
	c.pool.WithMetrics(m)
	return c
}

// Close closes the underlying pool.
func (c *Client) Close() error { return c.pool.Close() }

// Stats reports the underlying pool's occupancy.
func (c *Client) Stats() Stats { return c.pool.Stats() }

// Run checks out a connection, runs cmd, and returns it (§4.2's
// run(command), fronted by a pool checkout per §4.6).
func (c *Client) Run(cmd Command) (Value, error) {
	var result Value
	err := c.pool.Checkout(func(conn *Connection) error {
		v, err := conn.Run(cmd)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// Pipeline checks out one connection for the whole block, so every queued
// command shares it (§4.6).
func (c *Client) Pipeline(fn func(p *Pipeline) error) error {
	return c.pool.Checkout(func(conn *Connection) error {
		return conn.Pipeline(fn)
	})
}

// Transaction checks out one connection for the whole MULTI/EXEC block.
func (c *Client) Transaction(fn func(tx *Transaction) error) ([]Value, error) {
	var result []Value
	err := c.pool.Checkout(func(conn *Connection) error {
		vals, err := conn.Transaction(fn)
		if err != nil {
			return err
		}
		result = vals
		return nil
	})
	return result, err
}

// Subscribe checks out one connection for the lifetime of the subscription
// and holds it until every channel (and pattern) has been unsubscribed.
func (c *Client) Subscribe(cb SubscriptionCallbacks, channels ...string) error {
	return c.pool.Checkout(func(conn *Connection) error {
		return conn.Subscribe(cb, channels...)
	})
}

// PSubscribe mirrors Subscribe for pattern subscriptions.
func (c *Client) PSubscribe(cb SubscriptionCallbacks, patterns ...string) error {
	return c.pool.Checkout(func(conn *Connection) error {
		return conn.PSubscribe(cb, patterns...)
	})
}

// ScanEach iterates every key matching match (or every key when match is
// empty) using SCAN's cursor protocol, one checked-out connection for the
// iterator's lifetime (§4.6). fn is called once per key; returning an error
// from fn stops the scan and is returned from ScanEach.
func (c *Client) ScanEach(match string, count int, fn func(key string) error) error {
	return c.pool.Checkout(func(conn *Connection) error {
		cursor := "0"
		for {
			args := []interface{}{"SCAN", cursor}
			if match != "" {
				args = append(args, "MATCH", match)
			}
			if count > 0 {
				args = append(args, "COUNT", count)
			}
			v, err := conn.Run(Command{Args: commandArgs(args)})
			if err != nil {
				return err
			}
			if v.Type == TypeError {
				return v.Err
			}
			if len(v.Array) != 2 {
				return ErrProtocol
			}
			cursor = v.Array[0].String()
			for _, elem := range v.Array[1].Array {
				if err := fn(elem.String()); err != nil {
					return err
				}
			}
			if cursor == "0" {
				return nil
			}
		}
	})
}

// Ping checks the server is reachable and responsive, per the §4.6
// supplemented health-check surface.
func (c *Client) Ping() error {
	v, err := c.Run(NewCommand("PING"))
	if err != nil {
		return err
	}
	if v.Type == TypeError {
		return v.Err
	}
	return nil
}

// Healthy reports whether Ping currently succeeds, swallowing the error for
// callers that only want a boolean.
func (c *Client) Healthy() bool {
	return c.Ping() == nil
}

// --- return-type-narrowed command surface (§4.6) ---
//
// The client overlays specific Go types on the generic Value for a handful
// of well-known, frequently used commands. Every other command is reachable
// through Run/Pipeline/Transaction and the typed wrappers in commands_*.go.

// Get runs GET key and narrows the reply to (string, found).
func (c *Client) Get(key string) (string, bool, error) {
	v, err := c.Run(NewCommand("GET", key))
	if err != nil {
		return "", false, err
	}
	if v.Type == TypeError {
		return "", false, v.Err
	}
	if v.IsNull() {
		return "", false, nil
	}
	return v.String(), true, nil
}

// Set runs SET key value and narrows the reply to an error only.
func (c *Client) Set(key, value string) error {
	v, err := c.Run(NewCommand("SET", key, value))
	if err != nil {
		return err
	}
	if v.Type == TypeError {
		return v.Err
	}
	return nil
}

// Del runs DEL key... and narrows the reply to the removed-key count.
func (c *Client) Del(keys ...string) (int64, error) {
	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, "DEL")
	for _, k := range keys {
		args = append(args, k)
	}
	v, err := c.Run(Command{Args: commandArgs(args)})
	if err != nil {
		return 0, err
	}
	if v.Type == TypeError {
		return 0, v.Err
	}
	return v.Integer, nil
}

// Incr runs INCR key and narrows the reply to the post-increment integer.
func (c *Client) Incr(key string) (int64, error) {
	v, err := c.Run(NewCommand("INCR", key))
	if err != nil {
		return 0, err
	}
	if v.Type == TypeError {
		return 0, v.Err
	}
	return v.Integer, nil
}

// Decr runs DECR key and narrows the reply to the post-decrement integer.
func (c *Client) Decr(key string) (int64, error) {
	v, err := c.Run(NewCommand("DECR", key))
	if err != nil {
		return 0, err
	}
	if v.Type == TypeError {
		return 0, v.Err
	}
	return v.Integer, nil
}

// LRange runs LRANGE key start stop and narrows the reply to a []string.
func (c *Client) LRange(key string, start, stop int64) ([]string, error) {
	v, err := c.Run(NewCommand("LRANGE", key, strconv.FormatInt(start, 10), strconv.FormatInt(stop, 10)))
	if err != nil {
		return nil, err
	}
	if v.Type == TypeError {
		return nil, v.Err
	}
	out := make([]string, len(v.Array))
	for i, e := range v.Array {
		out[i] = e.String()
	}
	return out, nil
}

// BRPop runs BRPOP key timeout and narrows the reply to (value, found).
// A nil array reply (timeout elapsed with no push) reports found=false.
func (c *Client) BRPop(key string, timeout int64) (string, bool, error) {
	v, err := c.Run(NewCommand("BRPOP", key, strconv.FormatInt(timeout, 10)))
	if err != nil {
		return "", false, err
	}
	if v.Type == TypeError {
		return "", false, v.Err
	}
	if v.IsNull() || len(v.Array) < 2 {
		return "", false, nil
	}
	return v.Array[1].String(), true, nil
}
