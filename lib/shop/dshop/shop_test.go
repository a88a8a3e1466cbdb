package dshop

import (
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/config"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/db/engines/memdb"
	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
	shoptesting "github.com/ValentinKolb/dShop/lib/shop/testing"
)

// freeAddress returns a local address with a currently unused port
func freeAddress(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().String()
}

// newSingleNodeHost starts a NodeHost that hosts single replica shards
func newSingleNodeHost(t *testing.T) (*dragonboat.NodeHost, string) {
	t.Helper()
	dir := t.TempDir()
	addr := freeAddress(t)

	nh, err := dragonboat.NewNodeHost(config.NodeHostConfig{
		WALDir:         dir,
		NodeHostDir:    dir,
		RTTMillisecond: 5,
		RaftAddress:    addr,
	})
	require.NoError(t, err)
	t.Cleanup(nh.Close)
	return nh, addr
}

// startShard starts a single replica shard and waits until it elected itself as leader
func startShard(t *testing.T, nh *dragonboat.NodeHost, addr string, shardID uint64) {
	t.Helper()
	factory := CreateStateMachineFactory(func() db.ShopDB { return memdb.NewMemDB() })
	err := nh.StartConcurrentReplica(map[uint64]string{1: addr}, false, factory, config.Config{
		ReplicaID:       1,
		ShardID:         shardID,
		ElectionRTT:     10,
		HeartbeatRTT:    1,
		CheckQuorum:     true,
		SnapshotEntries: 10,
	})
	require.NoError(t, err)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, ok, err := nh.GetLeaderID(shardID); err == nil && ok {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("shard %d did not elect a leader", shardID)
}

func TestDistributedShop(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a raft node host")
	}

	nh, addr := newSingleNodeHost(t)
	var nextShard atomic.Uint64
	nextShard.Store(100)

	shoptesting.RunShopTests(t, "DistributedShop", func(t *testing.T) shop.IShop {
		shardID := nextShard.Add(1)
		startShard(t, nh, addr, shardID)
		return NewDistributedShop(nh, shardID, 5*time.Second)
	})
}

func TestDistributedShopSnapshotting(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a raft node host")
	}

	nh, addr := newSingleNodeHost(t)
	const shardID = 100
	startShard(t, nh, addr, shardID)
	s := NewDistributedShop(nh, shardID, 5*time.Second)

	// SnapshotEntries is 10, so this forces several snapshots
	for i := 0; i < 35; i++ {
		_, err := s.CreateUser(model.InsertUser{Username: fmt.Sprintf("user-%d", i)})
		require.NoError(t, err)
	}

	user, err := s.GetUserByUsername("user-34")
	require.NoError(t, err)
	require.Equal(t, uint64(35), user.ID)
}
