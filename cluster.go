package redis

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const clusterSlotCount = 16384

// slotRange is one shard's inclusive hash-slot range (§3 Cluster topology).
type slotRange struct {
	Start, End int
}

func (r slotRange) contains(slot int) bool { return slot >= r.Start && slot <= r.End }

// nodeFlags mirrors CLUSTER NODES' flag column.
type nodeFlags struct {
	Master, Replica, PFail, Fail, Handshake, NoAddr, NoFailover bool
}

type clusterNode struct {
	ID         string
	Addr       string
	Flags      nodeFlags
	MasterID   string
	Connected  bool
	SlotRanges []slotRange
}

// shard groups one master with its known replicas and the slot range it
// owns. A master reporting more than one disjoint slot range is rejected
// when the snapshot is built, with ErrUnsupportedTopology (§9 Open Question: only the
// single-contiguous-range layout real deployments use is supported).
type shard struct {
	Range    slotRange
	Master   *Pool
	Replicas []*Pool
}

// clusterSnapshot is the atomically swapped routing view, grounded on the
// same snapshot-swap idiom as replicationSnapshot.
type clusterSnapshot struct {
	shards []*shard
}

// Cluster routes commands by hashing the command's key into a slot and
// picking the shard whose range contains it (§4.8).
type Cluster struct {
	opt Options
	log *logSink

	snap atomic.Value // *clusterSnapshot

	topologyTTL time.Duration
	stopCh      chan struct{}
}

// NewCluster discovers the topology from one seed address and starts the
// periodic refresher. topologyTTL = 0 disables refreshing.
func NewCluster(opt Options, topologyTTL time.Duration) (*Cluster, error) {
	c := &Cluster{opt: opt, topologyTTL: topologyTTL, stopCh: make(chan struct{})}

	nodes, err := fetchClusterNodes(opt)
	if err != nil {
		return nil, err
	}
	snap, err := c.buildSnapshot(nodes)
	if err != nil {
		return nil, err
	}
	c.snap.Store(snap)

	if topologyTTL > 0 {
		go c.refreshLoop()
	}
	return c, nil
}

// WithLogger attaches a structured log sink.
func (c *Cluster) WithLogger(l *logSink) *Cluster {
	c.log = l
	return c
}

func (c *Cluster) load() *clusterSnapshot {
	return c.snap.Load().(*clusterSnapshot)
}

// Run routes cmd by its key's slot: to a shuffled replica when the command
// is read-only and the shard has one, otherwise to the shard's master
// (§4.8 routing rule). A command with no routable key fails with ErrNoKey.
func (c *Cluster) Run(cmd Command) (Value, error) {
	key, ok := cmd.Key()
	if !ok {
		return Value{}, ErrNoKey
	}
	sh, err := c.shardFor(key)
	if err != nil {
		return Value{}, err
	}

	pool := sh.Master
	if IsReadOnly(cmd.Name()) && len(sh.Replicas) > 0 {
		pool = sh.Replicas[rand.Intn(len(sh.Replicas))]
	}

	var result Value
	err = pool.Checkout(func(conn *Connection) error {
		v, err := conn.Run(cmd)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

func (c *Cluster) shardFor(key []byte) (*shard, error) {
	slot := KeySlot(key)
	for _, sh := range c.load().shards {
		if sh.Range.contains(slot) {
			return sh, nil
		}
	}
	return nil, fmt.Errorf("redis: no shard owns slot %d", slot)
}

// Keys fans out KEYS pattern to every master concurrently and merges the
// results (§4.8 fan-out operations). Every master's KEYS runs to completion;
// if any fails, the first error is returned and no partial results are.
func (c *Cluster) Keys(pattern string) ([]string, error) {
	shards := c.load().shards
	results := make([][]string, len(shards))

	g := new(errgroup.Group)
	for i, sh := range shards {
		i, sh := i, sh
		g.Go(func() error {
			return sh.Master.Checkout(func(conn *Connection) error {
				v, err := conn.Run(NewCommand("KEYS", pattern))
				if err != nil {
					return err
				}
				if v.Type == TypeError {
					return v.Err
				}
				keys := make([]string, len(v.Array))
				for j, e := range v.Array {
					keys[j] = e.String()
				}
				results[i] = keys
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []string
	for _, ks := range results {
		merged = append(merged, ks...)
	}
	return merged, nil
}

// FlushAll issues FLUSHALL against every master concurrently.
func (c *Cluster) FlushAll() error {
	shards := c.load().shards
	g := new(errgroup.Group)
	for _, sh := range shards {
		sh := sh
		g.Go(func() error {
			return sh.Master.Checkout(func(conn *Connection) error {
				v, err := conn.Run(NewCommand("FLUSHALL"))
				if err != nil {
					return err
				}
				if v.Type == TypeError {
					return v.Err
				}
				return nil
			})
		})
	}
	return g.Wait()
}

// ScanEach fans SCAN out across every master (cursor state kept
// per-master), invoking fn for every key found. The first error from fn or
// from any shard's scan cancels the remaining shards: they stop before their
// next SCAN round or key, and that first error is returned.
func (c *Cluster) ScanEach(match string, count int, fn func(key string) error) error {
	shards := c.load().shards
	g, ctx := errgroup.WithContext(context.Background())
	var mu sync.Mutex
	for _, sh := range shards {
		sh := sh
		g.Go(func() error {
			return sh.Master.Checkout(func(conn *Connection) error {
				cursor := "0"
				for {
					if ctx.Err() != nil {
						return nil
					}
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
						if ctx.Err() != nil {
							return nil
						}
						mu.Lock()
						err := fn(elem.String())
						mu.Unlock()
						if err != nil {
							return err
						}
					}
					if cursor == "0" {
						return nil
					}
				}
			})
		})
	}
	return g.Wait()
}

// Close closes every shard's master and replica pools.
func (c *Cluster) Close() error {
	close(c.stopCh)
	snap := c.load()
	for _, sh := range snap.shards {
		sh.Master.Close()
		for _, r := range sh.Replicas {
			r.Close()
		}
	}
	return nil
}

func (c *Cluster) refreshLoop() {
	ticker := time.NewTicker(c.topologyTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.refresh()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cluster) refresh() {
	nodes, err := fetchClusterNodes(c.opt)
	if err != nil {
		c.log.warnf("redis: cluster topology refresh failed: %v", err)
		return
	}
	snap, err := c.buildSnapshot(nodes)
	if err != nil {
		c.log.warnf("redis: cluster topology rebuild failed: %v", err)
		return
	}
	old := c.load()
	c.snap.Store(snap)
	for _, sh := range old.shards {
		sh.Master.Close()
		for _, r := range sh.Replicas {
			r.Close()
		}
	}
}

func (c *Cluster) buildSnapshot(nodes []clusterNode) (*clusterSnapshot, error) {
	byID := make(map[string]clusterNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var shards []*shard
	for _, n := range nodes {
		if !n.Flags.Master || len(n.SlotRanges) == 0 {
			continue
		}
		if len(n.SlotRanges) > 1 {
			return nil, ErrUnsupportedTopology
		}
		masterPool, err := NewPool(optFor(c.opt, n.Addr))
		if err != nil {
			return nil, fmt.Errorf("redis: dialing master %s: %w", n.Addr, err)
		}

		sh := &shard{Range: n.SlotRanges[0], Master: masterPool}
		for _, r := range nodes {
			if r.Flags.Replica && r.MasterID == n.ID && r.Connected {
				replicaPool, err := NewPool(optFor(c.opt, r.Addr))
				if err != nil {
					c.log.warnf("redis: replica %s unreachable, excluding from routing: %v", r.Addr, err)
					continue
				}
				sh.Replicas = append(sh.Replicas, replicaPool)
			}
		}
		shards = append(shards, sh)
	}
	return &clusterSnapshot{shards: shards}, nil
}

func optFor(base Options, addr string) Options {
	opt := base
	opt.Addr = normalizeAddr(addr)
	return opt
}

// fetchClusterNodes dials a short-lived connection and parses CLUSTER NODES.
func fetchClusterNodes(opt Options) ([]clusterNode, error) {
	conn, err := Dial(opt)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	v, err := conn.Run(NewCommand("CLUSTER", "NODES"))
	if err != nil {
		return nil, err
	}
	if v.Type == TypeError {
		return nil, v.Err
	}
	return parseClusterNodes(v.String()), nil
}

// parseClusterNodes parses CLUSTER NODES' line-based reply (§4.8): node id,
// ip:port@cluster_port, flags, master-of id (or "-"), ping/pong timestamps,
// config epoch, link state, then zero or more slot ranges.
func parseClusterNodes(body string) []clusterNode {
	var nodes []clusterNode
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 8 {
			continue
		}

		n := clusterNode{ID: fields[0]}
		n.Addr = strings.SplitN(fields[1], "@", 2)[0]
		n.Flags = parseNodeFlags(fields[2])
		if fields[3] != "-" {
			n.MasterID = fields[3]
		}
		n.Connected = fields[7] == "connected"

		for _, f := range fields[8:] {
			if strings.HasPrefix(f, "[") {
				continue // importing/migrating slot marker, not a plain range
			}
			r, ok := parseSlotRange(f)
			if ok {
				n.SlotRanges = append(n.SlotRanges, r)
			}
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func parseNodeFlags(s string) nodeFlags {
	var f nodeFlags
	for _, tok := range strings.Split(s, ",") {
		switch tok {
		case "master":
			f.Master = true
		case "slave", "replica":
			f.Replica = true
		case "fail?":
			f.PFail = true
		case "fail":
			f.Fail = true
		case "handshake":
			f.Handshake = true
		case "noaddr":
			f.NoAddr = true
		case "nofailover":
			f.NoFailover = true
		}
	}
	return f
}

func parseSlotRange(f string) (slotRange, bool) {
	parts := strings.SplitN(f, "-", 2)
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return slotRange{}, false
	}
	if len(parts) == 1 {
		return slotRange{Start: start, End: start}, true
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return slotRange{}, false
	}
	return slotRange{Start: start, End: end}, true
}

// KeySlot computes the cluster hash slot for key: the CRC-16/XMODEM
// checksum of the key (or of the substring between the first "{" and the
// next "}" when present, the hashtag mechanism callers use to co-locate
// multi-key operations) modulo 16384 (§4.8).
func KeySlot(key []byte) int {
	if start := indexByteSlice(key, '{'); start >= 0 {
		if end := indexByteSlice(key[start+1:], '}'); end > 0 {
			key = key[start+1 : start+1+end]
		}
	}
	return int(crc16XModem(key)) % clusterSlotCount
}

func indexByteSlice(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

// crc16XModem computes the CRC-16/XMODEM checksum (polynomial 0x1021, no
// reflection, zero initial value) that Redis Cluster's slot hashing is
// defined in terms of.
func crc16XModem(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
