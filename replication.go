package redis

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// replicaInfo is one `slave_i:` line from INFO REPLICATION.
type replicaInfo struct {
	IP    string
	Port  string
	State string
	Lag   int64
}

// replicationTopology is the parsed body of one INFO REPLICATION reply
// (§4.7). A replica entry's pool is keyed by its own ip:port.
type replicationTopology struct {
	Role     string // "master" or "slave"
	Replicas []replicaInfo

	MasterHost          string
	MasterPort          string
	MasterLinkStatus    string
	MasterLastIOSecsAgo int64
	MasterSyncInProgres bool
}

// replicationSnapshot is the immutable, atomically swapped routing view:
// one primary pool plus one pool per known replica. Grounded on
// db-bouncer's router.Router atomic.Value snapshot pattern.
type replicationSnapshot struct {
	primary  *Pool
	replicas []*Pool
}

// ReplicationClient routes read-only commands to a uniformly random replica
// and everything else to the primary, refreshing the topology periodically
// from INFO REPLICATION (§4.7).
type ReplicationClient struct {
	opt Options
	log *logSink

	snap atomic.Value // *replicationSnapshot

	// seedAddrs holds extra replica addresses (normalized host:port)
	// contributed by an optional seed file, unioned into every
	// buildSnapshot call alongside INFO REPLICATION's own online replicas.
	seedAddrs atomic.Value // []string

	topologyTTL time.Duration
	stopCh      chan struct{}
	watcher     *seedWatcher
}

// DefaultTopologyTTL is §4.7's default refresh interval.
const DefaultTopologyTTL = 10 * time.Second

// NewReplicationClient connects to entryAddr, discovers the replication
// topology (reconstructing itself pointed at the master if entryAddr named
// a replica), and starts the periodic refresher. topologyTTL = 0 disables
// refreshing.
func NewReplicationClient(opt Options, topologyTTL time.Duration) (*ReplicationClient, error) {
	rc := &ReplicationClient{opt: opt, topologyTTL: topologyTTL, stopCh: make(chan struct{})}
	rc.seedAddrs.Store([]string(nil))

	topo, err := fetchTopology(opt)
	if err != nil {
		return nil, err
	}
	if topo.Role == "slave" {
		if topo.MasterHost == "" {
			return nil, fmt.Errorf("redis: replica %s reports no master", opt.Addr)
		}
		masterOpt := opt
		masterOpt.Addr = normalizeAddr(topo.MasterHost + ":" + topo.MasterPort)
		rc.opt = masterOpt
		topo, err = fetchTopology(masterOpt)
		if err != nil {
			return nil, err
		}
	}

	snap, err := rc.buildSnapshot(topo)
	if err != nil {
		return nil, err
	}
	rc.snap.Store(snap)

	if topologyTTL > 0 {
		go rc.refreshLoop()
	}
	return rc, nil
}

// WithLogger attaches a structured log sink used for topology refresh
// diagnostics.
func (rc *ReplicationClient) WithLogger(l *logSink) *ReplicationClient {
	rc.log = l
	return rc
}

// WithSeedFile starts an optional fsnotify-backed watch over a file listing
// extra replica addresses (one per line), merged into the next refresh.
func (rc *ReplicationClient) WithSeedFile(path string) (*ReplicationClient, error) {
	w, err := newSeedWatcher(path, func(addrs []string) {
		normalized := make([]string, len(addrs))
		for i, a := range addrs {
			normalized[i] = normalizeAddr(a)
		}
		rc.seedAddrs.Store(normalized)
		rc.log.debugf("redis: seed file %s now lists %d replica(s)", path, len(normalized))
	})
	if err != nil {
		return nil, err
	}
	rc.watcher = w
	return rc, nil
}

// loadSeedAddrs returns the most recently read seed-file addresses, or nil
// if no seed file was ever configured.
func (rc *ReplicationClient) loadSeedAddrs() []string {
	addrs, _ := rc.seedAddrs.Load().([]string)
	return addrs
}

func (rc *ReplicationClient) load() *replicationSnapshot {
	return rc.snap.Load().(*replicationSnapshot)
}

func (rc *ReplicationClient) buildSnapshot(topo replicationTopology) (*replicationSnapshot, error) {
	primary, err := NewPool(rc.opt)
	if err != nil {
		return nil, fmt.Errorf("redis: dialing primary %s: %w", rc.opt.Addr, err)
	}

	addrs := mergeReplicaAddrs(onlineReplicaAddrs(topo), rc.loadSeedAddrs())
	replicas := make([]*Pool, 0, len(addrs))
	for _, addr := range addrs {
		replicaOpt := rc.opt
		replicaOpt.Addr = addr
		pool, err := NewPool(replicaOpt)
		if err != nil {
			rc.log.warnf("redis: replica %s unreachable, excluding from routing: %v", addr, err)
			continue
		}
		replicas = append(replicas, pool)
	}
	return &replicationSnapshot{primary: primary, replicas: replicas}, nil
}

// mergeReplicaAddrs unions INFO REPLICATION's own online replicas with any
// extra addresses contributed by a seed file, deduplicating by normalized
// address.
func mergeReplicaAddrs(discovered, seeded []string) []string {
	seen := make(map[string]struct{}, len(discovered)+len(seeded))
	out := make([]string, 0, len(discovered)+len(seeded))
	for _, addr := range discovered {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	for _, addr := range seeded {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// onlineReplicaAddrs extracts the normalized addresses of every replica
// INFO REPLICATION reported in "online" state, discarding the rest (a
// replica mid-bgsave or in a handshake is not yet safe to route reads to).
func onlineReplicaAddrs(topo replicationTopology) []string {
	addrs := make([]string, 0, len(topo.Replicas))
	for _, r := range topo.Replicas {
		if r.State != "online" {
			continue
		}
		addrs = append(addrs, normalizeAddr(r.IP+":"+r.Port))
	}
	return addrs
}

// Run routes cmd to a replica if its first token is registered read-only,
// otherwise to the primary (§4.7 routing rule).
func (rc *ReplicationClient) Run(cmd Command) (Value, error) {
	pool := rc.routePool(cmd)
	var result Value
	err := pool.Checkout(func(conn *Connection) error {
		v, err := conn.Run(cmd)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// OnPrimary forces fn onto the primary pool regardless of the registry.
func (rc *ReplicationClient) OnPrimary(fn func(c *Connection) error) error {
	return rc.load().primary.Checkout(fn)
}

// OnReplica forces fn onto a uniformly random replica regardless of the
// registry; it falls back to the primary if no replica is known.
func (rc *ReplicationClient) OnReplica(fn func(c *Connection) error) error {
	snap := rc.load()
	if len(snap.replicas) == 0 {
		return snap.primary.Checkout(fn)
	}
	return snap.replicas[rand.Intn(len(snap.replicas))].Checkout(fn)
}

func (rc *ReplicationClient) routePool(cmd Command) *Pool {
	snap := rc.load()
	if IsReadOnly(cmd.Name()) && len(snap.replicas) > 0 {
		return snap.replicas[rand.Intn(len(snap.replicas))]
	}
	return snap.primary
}

// Close closes the seed watcher (if any) and every pool in the current
// snapshot.
func (rc *ReplicationClient) Close() error {
	close(rc.stopCh)
	if rc.watcher != nil {
		rc.watcher.Stop()
	}
	snap := rc.load()
	snap.primary.Close()
	for _, p := range snap.replicas {
		p.Close()
	}
	return nil
}

func (rc *ReplicationClient) refreshLoop() {
	ticker := time.NewTicker(rc.topologyTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rc.refresh()
		case <-rc.stopCh:
			return
		}
	}
}

func (rc *ReplicationClient) refresh() {
	topo, err := fetchTopology(rc.opt)
	if err != nil {
		rc.log.warnf("redis: topology refresh failed: %v", err)
		return
	}
	if !rc.topologyChanged(topo) {
		return
	}
	snap, err := rc.buildSnapshot(topo)
	if err != nil {
		rc.log.warnf("redis: topology rebuild failed: %v", err)
		return
	}
	old := rc.load()
	rc.snap.Store(snap)
	old.primary.Close()
	for _, p := range old.replicas {
		p.Close()
	}
}

// topologyChanged compares the merged (discovered + seeded) replica address
// count against the currently routed pools; the primary address never
// changes within one ReplicationClient's lifetime (a promoted new master
// means reconnecting with a new entrypoint, out of scope for the automatic
// refresher).
func (rc *ReplicationClient) topologyChanged(topo replicationTopology) bool {
	merged := mergeReplicaAddrs(onlineReplicaAddrs(topo), rc.loadSeedAddrs())
	return len(merged) != len(rc.load().replicas)
}

// fetchTopology dials a short-lived connection, issues INFO REPLICATION,
// and parses the reply body.
func fetchTopology(opt Options) (replicationTopology, error) {
	conn, err := Dial(opt)
	if err != nil {
		return replicationTopology{}, err
	}
	defer conn.Close()

	v, err := conn.Run(NewCommand("INFO", "REPLICATION"))
	if err != nil {
		return replicationTopology{}, err
	}
	if v.Type == TypeError {
		return replicationTopology{}, v.Err
	}
	return parseInfoReplication(v.String()), nil
}

// parseInfoReplication parses INFO REPLICATION's line-based "key:value"
// body (§4.7).
func parseInfoReplication(body string) replicationTopology {
	var topo replicationTopology
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		key, val := line[:i], line[i+1:]
		switch {
		case key == "role":
			topo.Role = val
		case key == "master_host":
			topo.MasterHost = val
		case key == "master_port":
			topo.MasterPort = val
		case key == "master_link_status":
			topo.MasterLinkStatus = val
		case key == "master_last_io_seconds_ago":
			topo.MasterLastIOSecsAgo, _ = strconv.ParseInt(val, 10, 64)
		case key == "master_sync_in_progress":
			topo.MasterSyncInProgres = val == "1"
		case strings.HasPrefix(key, "slave"):
			topo.Replicas = append(topo.Replicas, parseReplicaLine(val))
		}
	}
	return topo
}

// parseReplicaLine parses one "ip=…,port=…,state=…,offset=…,lag=…" value.
func parseReplicaLine(val string) replicaInfo {
	var r replicaInfo
	for _, field := range strings.Split(val, ",") {
		i := strings.IndexByte(field, '=')
		if i < 0 {
			continue
		}
		k, v := field[:i], field[i+1:]
		switch k {
		case "ip":
			r.IP = v
		case "port":
			r.Port = v
		case "state":
			r.State = v
		case "lag":
			r.Lag, _ = strconv.ParseInt(v, 10, 64)
		}
	}
	return r
}
