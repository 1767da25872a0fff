package redis

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"
)

// Mode is the connection's current command paradigm (§3 Connection state).
type Mode int

const (
	ModeIdle Mode = iota
	ModePipelining
	ModeInTransaction
	ModeSubscribed
)

// Connection owns one duplex byte stream: a read parser, a write buffer, the
// AUTH/SELECT handshake, and the four command paradigms (§4.2). A single
// Connection is not safe for concurrent use once checked out (§5); the Pool
// is what arbitrates concurrent callers.
type Connection struct {
	opt Options
	log *logSink

	mu   sync.Mutex // guards conn/r/w/mode swap during reconnect
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
	mode Mode

	broken bool
}

// Dial establishes a Connection for opt, performing the AUTH/SELECT
// handshake before returning (§4.2).
func Dial(opt Options) (*Connection, error) {
	c := &Connection{opt: opt}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// DialURI is a convenience wrapper around ParseURI + Dial.
func DialURI(uri string) (*Connection, error) {
	opt, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return Dial(opt)
}

// WithLogger attaches a structured log sink to an already-dialed Connection.
func (c *Connection) WithLogger(l *logSink) *Connection {
	c.log = l
	return c
}

func (c *Connection) connect() error {
	network := "tcp"
	if isUnixAddr(c.opt.Addr) {
		network = "unix"
	}

	conn, err := net.DialTimeout(network, c.opt.Addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("redis: dial %s: %w", c.opt.Addr, err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok && c.opt.Keepalive {
		tcp.SetKeepAlive(true)
		if c.opt.KeepaliveIdle > 0 {
			tcp.SetKeepAlivePeriod(c.opt.KeepaliveIdle)
		}
	}

	if c.opt.TLS {
		conn = tls.Client(conn, &tls.Config{ServerName: hostOf(c.opt.Addr)})
	}

	c.conn = conn
	c.r = bufio.NewReader(conn)
	c.w = bufio.NewWriter(conn)
	c.mode = ModeIdle
	c.broken = false

	if err := c.handshake(); err != nil {
		conn.Close()
		return err
	}
	return nil
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func (c *Connection) handshake() error {
	if c.opt.Password != "" {
		var cmd Command
		if c.opt.Username != "" {
			cmd = NewCommand("AUTH", c.opt.Username, c.opt.Password)
		} else {
			cmd = NewCommand("AUTH", c.opt.Password)
		}
		v, err := c.runLocked(cmd)
		if err != nil {
			return fmt.Errorf("redis: AUTH: %w", err)
		}
		if v.Type == TypeError {
			return fmt.Errorf("redis: AUTH failed: %w", v.Err)
		}
	}
	if c.opt.DB != 0 {
		v, err := c.runLocked(NewCommand("SELECT", c.opt.DB))
		if err != nil {
			return fmt.Errorf("redis: SELECT: %w", err)
		}
		if v.Type == TypeError {
			return fmt.Errorf("redis: SELECT failed: %w", v.Err)
		}
	}
	return nil
}

// Close closes the underlying stream. Safe to call more than once; a closed
// Connection's further operations report ErrClosed instead of re-dialing.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broken = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// reconnectIfBroken implements §4.2's reconnection policy: any I/O or parse
// failure outside a transaction closes and re-opens the stream on the next
// operation.
func (c *Connection) reconnectIfBroken() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.broken {
		return nil
	}
	if c.conn == nil {
		return ErrClosed
	}
	c.conn.Close()
	c.log.warnf("redis: reconnecting to %s after a broken stream", c.opt.Addr)
	return c.connectLocked()
}

// connectLocked re-establishes the stream; caller holds c.mu.
func (c *Connection) connectLocked() error {
	network := "tcp"
	if isUnixAddr(c.opt.Addr) {
		network = "unix"
	}
	conn, err := net.DialTimeout(network, c.opt.Addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("redis: reconnect %s: %w", c.opt.Addr, err)
	}
	if c.opt.TLS {
		conn = tls.Client(conn, &tls.Config{ServerName: hostOf(c.opt.Addr)})
	}
	c.conn = conn
	c.r = bufio.NewReader(conn)
	c.w = bufio.NewWriter(conn)
	c.mode = ModeIdle
	c.broken = false
	return c.handshake()
}

func (c *Connection) markBroken() {
	c.mu.Lock()
	c.broken = true
	c.mu.Unlock()
}

// Run encodes cmd, flushes it, parses exactly one reply, and returns it
// (§4.2 "run(command)"). Any transport or protocol failure marks the
// Connection broken so the next call reconnects (§4.2's reconnect policy);
// a server error reply is returned as a *ServerError-bearing Value, not as
// the Go error.
func (c *Connection) Run(cmd Command) (Value, error) {
	if err := c.reconnectIfBroken(); err != nil {
		return Value{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runLocked(cmd)
}

// runLocked assumes c.mu is held (or is being called during handshake,
// before any concurrent access is possible).
func (c *Connection) runLocked(cmd Command) (Value, error) {
	if err := Encode(c.w, cmd.Args); err != nil {
		c.broken = true
		return Value{}, err
	}
	if err := c.w.Flush(); err != nil {
		c.broken = true
		return Value{}, err
	}
	v, err := Decode(c.r)
	if err != nil {
		c.broken = true
		return Value{}, err
	}
	c.log.debugf("redis: %s -> %v", cmd.Name(), v.Type)
	return v, nil
}

// Addr returns the normalized address this Connection was dialed with.
func (c *Connection) Addr() string { return c.opt.Addr }

// Mode reports the connection's current command paradigm.
func (c *Connection) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}
