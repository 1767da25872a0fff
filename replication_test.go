package redis

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseInfoReplicationMaster(t *testing.T) {
	body := "# Replication\r\n" +
		"role:master\r\n" +
		"connected_slaves:2\r\n" +
		"slave0:ip=10.0.0.2,port=6379,state=online,offset=123,lag=0\r\n" +
		"slave1:ip=10.0.0.3,port=6379,state=online,offset=120,lag=1\r\n" +
		"master_failover_state:no-failover\r\n"

	topo := parseInfoReplication(body)
	if topo.Role != "master" {
		t.Fatalf("role = %q, want master", topo.Role)
	}
	if len(topo.Replicas) != 2 {
		t.Fatalf("got %d replicas, want 2", len(topo.Replicas))
	}
	if topo.Replicas[0].IP != "10.0.0.2" || topo.Replicas[0].Port != "6379" || topo.Replicas[0].State != "online" {
		t.Errorf("replica[0] = %+v", topo.Replicas[0])
	}
	if topo.Replicas[1].Lag != 1 {
		t.Errorf("replica[1].Lag = %d, want 1", topo.Replicas[1].Lag)
	}
}

func TestParseInfoReplicationSlave(t *testing.T) {
	body := "role:slave\r\n" +
		"master_host:10.0.0.1\r\n" +
		"master_port:6379\r\n" +
		"master_link_status:up\r\n" +
		"master_last_io_seconds_ago:0\r\n" +
		"master_sync_in_progress:0\r\n"

	topo := parseInfoReplication(body)
	if topo.Role != "slave" {
		t.Fatalf("role = %q, want slave", topo.Role)
	}
	if topo.MasterHost != "10.0.0.1" || topo.MasterPort != "6379" {
		t.Errorf("master addr = %s:%s", topo.MasterHost, topo.MasterPort)
	}
	if topo.MasterLinkStatus != "up" {
		t.Errorf("master_link_status = %q", topo.MasterLinkStatus)
	}
	if topo.MasterSyncInProgres {
		t.Errorf("master_sync_in_progress should be false")
	}
}

func TestParseInfoReplicationIgnoresOfflineReplicas(t *testing.T) {
	body := "role:master\r\n" +
		"slave0:ip=10.0.0.2,port=6379,state=wait_bgsave,offset=0,lag=0\r\n"
	topo := parseInfoReplication(body)
	if len(topo.Replicas) != 1 || topo.Replicas[0].State != "wait_bgsave" {
		t.Fatalf("got %+v", topo.Replicas)
	}
	// The parser preserves every line verbatim; filtering to routable
	// replicas is onlineReplicaAddrs' job.
	if addrs := onlineReplicaAddrs(topo); len(addrs) != 0 {
		t.Fatalf("got %v, want no routable replicas for a non-online state", addrs)
	}
}

func TestRoutePoolSendsReadOnlyToReplicaWhenAvailable(t *testing.T) {
	primaryOpt := DefaultOptions("127.0.0.1:1")
	primaryOpt.InitialPoolSize = 0
	primary, err := NewPool(primaryOpt)
	if err != nil {
		t.Fatalf("NewPool primary: %v", err)
	}
	defer primary.Close()

	replicaOpt := DefaultOptions("127.0.0.1:2")
	replicaOpt.InitialPoolSize = 0
	replica, err := NewPool(replicaOpt)
	if err != nil {
		t.Fatalf("NewPool replica: %v", err)
	}
	defer replica.Close()

	rc := &ReplicationClient{}
	rc.snap.Store(&replicationSnapshot{primary: primary, replicas: []*Pool{replica}})

	if got := rc.routePool(NewCommand("GET", "k")); got != replica {
		t.Errorf("GET should route to the replica when one is available")
	}
	if got := rc.routePool(NewCommand("SET", "k", "v")); got != primary {
		t.Errorf("SET should always route to the primary")
	}
}

func TestRoutePoolFallsBackToPrimaryWithNoReplicas(t *testing.T) {
	primaryOpt := DefaultOptions("127.0.0.1:1")
	primaryOpt.InitialPoolSize = 0
	primary, err := NewPool(primaryOpt)
	if err != nil {
		t.Fatalf("NewPool primary: %v", err)
	}
	defer primary.Close()

	rc := &ReplicationClient{}
	rc.snap.Store(&replicationSnapshot{primary: primary})

	if got := rc.routePool(NewCommand("GET", "k")); got != primary {
		t.Errorf("GET should fall back to the primary when there are no replicas")
	}
}

func TestMergeReplicaAddrsDedupesAndPreservesOrder(t *testing.T) {
	discovered := []string{"10.0.0.2:6379", "10.0.0.3:6379"}
	seeded := []string{"10.0.0.3:6379", "10.0.0.9:6379"}

	got := mergeReplicaAddrs(discovered, seeded)
	want := []string{"10.0.0.2:6379", "10.0.0.3:6379", "10.0.0.9:6379"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReplicationClientLoadSeedAddrsDefaultsToNil(t *testing.T) {
	rc := &ReplicationClient{}
	rc.seedAddrs.Store([]string(nil))
	if addrs := rc.loadSeedAddrs(); addrs != nil {
		t.Fatalf("got %v, want nil with no seed file configured", addrs)
	}
}

func TestWithSeedFileMergesIntoBuildSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.txt")
	if err := os.WriteFile(path, []byte("10.0.0.9:6379\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	opt := DefaultOptions("127.0.0.1:1")
	opt.InitialPoolSize = 0
	rc := &ReplicationClient{opt: opt, stopCh: make(chan struct{})}
	rc.seedAddrs.Store([]string(nil))

	if _, err := rc.WithSeedFile(path); err != nil {
		t.Fatalf("WithSeedFile: %v", err)
	}
	defer rc.watcher.Stop()

	if addrs := rc.loadSeedAddrs(); len(addrs) != 1 || addrs[0] != "10.0.0.9:6379" {
		t.Fatalf("got %v, want the seed file's single address", addrs)
	}

	snap, err := rc.buildSnapshot(replicationTopology{})
	if err != nil {
		t.Fatalf("buildSnapshot: %v", err)
	}
	defer snap.primary.Close()
	defer func() {
		for _, p := range snap.replicas {
			p.Close()
		}
	}()

	if len(snap.replicas) != 1 {
		t.Fatalf("got %d replicas, want 1 pool built from the seed file", len(snap.replicas))
	}
}

func TestTopologyChangedAccountsForSeedAddrs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.txt")
	if err := os.WriteFile(path, []byte("10.0.0.9:6379\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	opt := DefaultOptions("127.0.0.1:1")
	opt.InitialPoolSize = 0
	replicaOpt := opt
	replicaOpt.Addr = "10.0.0.9:6379"
	replica, err := NewPool(replicaOpt)
	if err != nil {
		t.Fatalf("NewPool replica: %v", err)
	}
	defer replica.Close()

	rc := &ReplicationClient{opt: opt, stopCh: make(chan struct{})}
	rc.seedAddrs.Store([]string(nil))
	rc.snap.Store(&replicationSnapshot{replicas: []*Pool{}})

	if _, err := rc.WithSeedFile(path); err != nil {
		t.Fatalf("WithSeedFile: %v", err)
	}
	defer rc.watcher.Stop()

	// An empty snapshot plus a seeded replica must register as a topology
	// change, even though INFO REPLICATION alone reports zero replicas.
	if !rc.topologyChanged(replicationTopology{}) {
		t.Fatal("expected topologyChanged to be true once a seed address is merged in")
	}

	rc.snap.Store(&replicationSnapshot{replicas: []*Pool{replica}})
	if rc.topologyChanged(replicationTopology{}) {
		t.Fatal("expected topologyChanged to be false once the snapshot already reflects the seeded replica")
	}
}

func TestOnlineReplicaAddrsFiltersAndNormalizes(t *testing.T) {
	topo := replicationTopology{Replicas: []replicaInfo{
		{IP: "10.0.0.2", Port: "6379", State: "online"},
		{IP: "10.0.0.3", Port: "6379", State: "online"},
		{IP: "10.0.0.4", Port: "6379", State: "handshake"},
	}}
	addrs := onlineReplicaAddrs(topo)
	if len(addrs) != 2 {
		t.Fatalf("got %v, want 2 online addresses", addrs)
	}
	if addrs[0] != "10.0.0.2:6379" || addrs[1] != "10.0.0.3:6379" {
		t.Errorf("got %v", addrs)
	}
}
