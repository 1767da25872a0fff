package redis

import "sync"

// readOnlyRegistry is the process-wide set of lowercased command tokens
// known safe to dispatch to a replica (§3 Read-only command registry). It
// is append-only after startup: module façades call RegisterReadOnly at
// init() time, and steady-state readers never observe a partial update
// because the underlying map is only ever grown under a lock, never
// replaced or deleted from.
var readOnlyRegistry = struct {
	mu  sync.RWMutex
	set map[string]struct{}
}{set: map[string]struct{}{
	"get": {}, "mget": {}, "strlen": {}, "getrange": {}, "exists": {},
	"ttl": {}, "pttl": {}, "type": {}, "randomkey": {}, "keys": {},
	"scan": {}, "hscan": {}, "sscan": {}, "zscan": {},
	"hget": {}, "hmget": {}, "hgetall": {}, "hkeys": {}, "hvals": {}, "hlen": {}, "hexists": {}, "hstrlen": {},
	"lrange": {}, "llen": {}, "lindex": {},
	"smembers": {}, "sismember": {}, "smismember": {}, "scard": {}, "sinter": {}, "sunion": {}, "sdiff": {},
	"zrange": {}, "zrangebyscore": {}, "zrevrange": {}, "zrevrangebyscore": {}, "zscore": {}, "zrank": {}, "zrevrank": {}, "zcard": {}, "zcount": {},
	"xrange": {}, "xrevrange": {}, "xlen": {}, "xread": {},
	"dump": {}, "object": {}, "memory": {}, "dbsize": {}, "ping": {}, "echo": {}, "info": {}, "lastsave": {},
	"getbit": {}, "bitcount": {}, "bitpos": {}, "geopos": {}, "geodist": {}, "geohash": {}, "geosearch": {},
	"pfcount": {}, "touch": {},
}}

// IsReadOnly reports whether the lowercased command token is registered as
// safe to route to a replica.
func IsReadOnly(name string) bool {
	readOnlyRegistry.mu.RLock()
	defer readOnlyRegistry.mu.RUnlock()
	_, ok := readOnlyRegistry.set[name]
	return ok
}

// RegisterReadOnly adds command tokens to the shared read-only registry.
// Module façades call this from their init() so every client in the
// process routes their read-only commands to replicas consistently.
func RegisterReadOnly(names ...string) {
	readOnlyRegistry.mu.Lock()
	defer readOnlyRegistry.mu.Unlock()
	for _, n := range names {
		readOnlyRegistry.set[lowerASCII(n)] = struct{}{}
	}
}
