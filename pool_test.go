package redis

import (
	"bufio"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

// fakeServer accepts connections and, for each, replies +OK to every
// command it reads, looping until the socket closes. It
// exists to let Pool tests Dial into something real without a Redis binary.
type fakeServer struct {
	ln     net.Listener
	closed atomic.Bool
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	fs := &fakeServer{ln: ln}
	go fs.acceptLoop()
	t.Cleanup(func() {
		fs.closed.Store(true)
		ln.Close()
	})
	return fs
}

func (fs *fakeServer) addr() string { return fs.ln.Addr().String() }

func (fs *fakeServer) acceptLoop() {
	for {
		conn, err := fs.ln.Accept()
		if err != nil {
			return
		}
		go fs.serve(conn)
	}
}

func (fs *fakeServer) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	for {
		_, err := readCommand(r)
		if err != nil {
			return
		}
		writeSimple(w, "OK")
	}
}

func TestPoolCheckoutReleasesConnection(t *testing.T) {
	fs := newFakeServer(t)
	opt := DefaultOptions(fs.addr())
	opt.InitialPoolSize = 0
	opt.MaxPoolSize = 2

	p, err := NewPool(opt)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	err = p.Checkout(func(c *Connection) error {
		v, err := c.Run(NewCommand("SET", "k", "v"))
		if err != nil {
			return err
		}
		if v.String() != "OK" {
			t.Errorf("got %q, want OK", v.String())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	stats := p.Stats()
	if stats.Active != 0 || stats.Idle != 1 {
		t.Errorf("stats = %+v, want 0 active / 1 idle", stats)
	}
}

func TestPoolCheckoutTimeoutWhenExhausted(t *testing.T) {
	fs := newFakeServer(t)
	opt := DefaultOptions(fs.addr())
	opt.InitialPoolSize = 0
	opt.MaxPoolSize = 1
	opt.CheckoutTimeout = 100 * time.Millisecond

	p, err := NewPool(opt)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	release := make(chan struct{})
	held := make(chan struct{})
	go p.Checkout(func(c *Connection) error {
		close(held)
		<-release
		return nil
	})
	<-held

	err = p.Checkout(func(c *Connection) error { return nil })
	if err != ErrPoolTimeout {
		t.Fatalf("got %v, want ErrPoolTimeout", err)
	}
	close(release)
}

func TestPoolMaxIdleTimeZeroDisablesReaper(t *testing.T) {
	fs := newFakeServer(t)
	opt := DefaultOptions(fs.addr())
	opt.InitialPoolSize = 0
	opt.MaxIdleTime = 0

	p, err := NewPool(opt)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	if p.idleCheckInterval != 0 {
		t.Fatalf("idleCheckInterval = %v, want 0 when MaxIdleTime is unset", p.idleCheckInterval)
	}

	if err := p.Checkout(func(c *Connection) error { return nil }); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	// With no reaper running, an idle connection older than what would have
	// been the reap threshold must still be sitting in the idle list.
	time.Sleep(20 * time.Millisecond)
	if stats := p.Stats(); stats.Idle != 1 {
		t.Fatalf("stats = %+v, want 1 idle connection left unreaped", stats)
	}
}

func TestPoolMaxIdleTimeReapsAgedIdleConnections(t *testing.T) {
	fs := newFakeServer(t)
	opt := DefaultOptions(fs.addr())
	opt.InitialPoolSize = 0
	opt.MaxIdlePoolSize = 25
	opt.MaxIdleTime = 10 * time.Millisecond

	p, err := NewPool(opt)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	if err := p.Checkout(func(c *Connection) error { return nil }); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if stats := p.Stats(); stats.Idle != 1 {
		t.Fatalf("stats = %+v, want 1 idle connection before the reaper runs", stats)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.Stats().Idle == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("reaper never shrank the idle pool back to 0 within the deadline")
}

func TestPoolClosedRejectsCheckout(t *testing.T) {
	fs := newFakeServer(t)
	opt := DefaultOptions(fs.addr())
	opt.InitialPoolSize = 1

	p, err := NewPool(opt)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	p.Close()

	err = p.Checkout(func(c *Connection) error { return nil })
	if err != ErrPoolClosed {
		t.Fatalf("got %v, want ErrPoolClosed", err)
	}
}
