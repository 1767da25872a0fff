package redis

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Options configures a Connection or Pool, decoded from a URI (§6) with the
// defaults from §4.5's option table.
type Options struct {
	Addr     string // normalized host:port, or a Unix socket path
	TLS      bool
	Username string
	Password string
	DB       int64

	InitialPoolSize  int
	MaxPoolSize      int
	MaxIdlePoolSize  int
	MaxIdleTime      time.Duration
	CheckoutTimeout  time.Duration
	RetryAttempts    int
	RetryDelay       time.Duration

	Keepalive         bool
	KeepaliveCount    int
	KeepaliveIdle     time.Duration
	KeepaliveInterval time.Duration
}

// DefaultOptions returns the §4.5 defaults for an unadorned address.
func DefaultOptions(addr string) Options {
	return Options{
		Addr:            normalizeAddr(addr),
		InitialPoolSize: 1,
		MaxPoolSize:     0,
		MaxIdlePoolSize: 25,
		MaxIdleTime:     0,
		CheckoutTimeout: 5 * time.Second,
		RetryAttempts:   1,
		RetryDelay:      200 * time.Millisecond,
	}
}

// ParseURI decodes a redis://, rediss:// or unix:// URI into Options.
// Unknown query parameters are ignored, per §6.
func ParseURI(uri string) (Options, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Options{}, fmt.Errorf("redis: invalid URI: %w", err)
	}

	opt := DefaultOptions("")
	switch u.Scheme {
	case "redis", "":
		opt.TLS = false
	case "rediss", "tls":
		opt.TLS = true
	case "unix":
		opt.Addr = filepath.Clean(u.Path)
	default:
		return Options{}, fmt.Errorf("redis: unrecognized URI scheme %q", u.Scheme)
	}

	if u.Scheme != "unix" {
		opt.Addr = normalizeAddr(u.Host)
	}

	if u.User != nil {
		opt.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			opt.Password = pw
		}
	}

	if path := strings.Trim(u.Path, "/"); path != "" && u.Scheme != "unix" {
		db, err := strconv.ParseInt(path, 10, 64)
		if err != nil {
			return Options{}, fmt.Errorf("redis: invalid database index %q", path)
		}
		opt.DB = db
	}

	q := u.Query()
	if err := applyQuery(&opt, q); err != nil {
		return Options{}, err
	}
	return opt, nil
}

func applyQuery(opt *Options, q url.Values) error {
	type intField struct {
		name string
		dst  *int
	}
	type durField struct {
		name string
		dst  *time.Duration
		unit time.Duration
	}

	ints := []intField{
		{"initial_pool_size", &opt.InitialPoolSize},
		{"max_pool_size", &opt.MaxPoolSize},
		{"max_idle_pool_size", &opt.MaxIdlePoolSize},
		{"retry_attempts", &opt.RetryAttempts},
		{"keepalive_count", &opt.KeepaliveCount},
	}
	for _, f := range ints {
		if v := q.Get(f.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("redis: invalid %s: %w", f.name, err)
			}
			*f.dst = n
		}
	}

	durs := []durField{
		{"checkout_timeout", &opt.CheckoutTimeout, time.Second},
		{"max_idle_time", &opt.MaxIdleTime, time.Second},
		{"retry_delay", &opt.RetryDelay, time.Second},
		{"keepalive_idle", &opt.KeepaliveIdle, time.Second},
		{"keepalive_interval", &opt.KeepaliveInterval, time.Second},
	}
	for _, f := range durs {
		if v := q.Get(f.name); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("redis: invalid %s: %w", f.name, err)
			}
			*f.dst = time.Duration(n * float64(f.unit))
		}
	}

	if v := q.Get("keepalive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("redis: invalid keepalive: %w", err)
		}
		opt.Keepalive = b
	}
	return nil
}

func isUnixAddr(s string) bool {
	return len(s) != 0 && s[0] == '/'
}

// normalizeAddr matches the teacher's helper: empty host defaults to
// localhost, empty port defaults to 6379, Unix paths are Cleaned.
func normalizeAddr(s string) string {
	if isUnixAddr(s) {
		return filepath.Clean(s)
	}

	host, port, err := net.SplitHostPort(s)
	if err != nil {
		host = s
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	return net.JoinHostPort(host, port)
}
