package server

import (
	"context"
	"fmt"
	"os/signal"
	"runtime"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/db/engines/memdb"
	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/ValentinKolb/dShop/lib/shop/dshop"
	"github.com/ValentinKolb/dShop/lib/shop/lshop"
	"github.com/ValentinKolb/dShop/rpc/common"
	"github.com/ValentinKolb/dShop/rpc/serializer"
	"github.com/ValentinKolb/dShop/rpc/transport"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// seedRetryInterval is the pause between seed attempts of a replicated shard
// (the shard can only be seeded once a leader is elected)
const seedRetryInterval = 500 * time.Millisecond

// serverShard is a struct that represents a shard in the RPC server
// It contains the shop it encapsulates and the adapter that handles requests for the shop
type serverShard struct {
	Shop    shop.IShop
	Adapter IRPCServerAdapter
}

// RPCServer serves the configured shards over a transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
	stats      *requestStats

	initOnce sync.Once
	initErr  error
	nodeHost *dragonboat.NodeHost
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
		stats:      newRequestStats(),
	}
}

// Init creates all shards. It is called by Serve, but can be called before to access
// the shops of the server (e.g. for the REST api). Only the first call has an effect.
func (s *RPCServer) Init() error {
	s.initOnce.Do(func() {
		s.initErr = s.init()
	})
	return s.initErr
}

// Shop returns the shop of a shard served by this server
func (s *RPCServer) Shop(shardID uint64) (shop.IShop, bool) {
	shard, ok := s.shards.Load(shardID)
	return shard.Shop, ok
}

// Serve initializes the server (if not done yet), seeds the shards and serves requests
// until ctx is done or the transport fails.
func (s *RPCServer) Serve(ctx context.Context) error {
	if err := s.Init(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.config.Seed {
		if err := s.seed(ctx); err != nil {
			return err
		}
	}

	if s.config.StatsInterval > 0 {
		go s.stats.run(ctx, s.config.StatsInterval)
	}

	// Close the transport once the context is done, this makes Listen return
	go func() {
		<-ctx.Done()
		if err := s.transport.Close(); err != nil {
			Logger.Errorf("failed to close transport: %v", err)
		}
	}()

	return s.transport.Listen(s.config)
}

// Close stops the raft node host (if any)
func (s *RPCServer) Close() error {
	if s.nodeHost != nil {
		s.nodeHost.Close()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		respMsg := s.handle(shardId, req)

		// Return result
		val, err := s.serializer.Serialize(*respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %v", err)
			val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
		}
		return val
	})
	s.transport.RegisterRejectHandler(s.stats.reject)
}

// handle decodes a request, passes it to the shard and records its duration
func (s *RPCServer) handle(shardId uint64, req []byte) *common.Message {
	// Get appropriate shard
	shard, ok := s.shards.Load(shardId)
	if !ok {
		return common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
	}

	// Decode the request
	var msg common.Message
	if err := s.serializer.Deserialize(req, &msg); err != nil {
		return common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	}

	// Let the adapter handle the request
	start := time.Now()
	resp := shard.Adapter.Handle(&msg, shard.Shop)
	s.stats.observe(msg.MsgType, start, resp.Err != "")
	return resp
}

func (s *RPCServer) init() error {
	// Function to create a new database instance
	dbFactory := func() db.ShopDB { return memdb.NewMemDB() }

	// Create the Dragonboat NodeHost
	if s.config.HasRemoteShard() {
		// Only create the NodeHost if we have remote shards
		nodeHost, err := dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
		s.nodeHost = nodeHost
	}

	// Configure the timeout for the distributed shop
	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	// CREATE SHARDS

	/*
		Note: A single RPC Server can have any number of remote and or local shards.
		The following loop creates all the shards and stores them for the RPC server.
	*/

	for _, shardConfig := range s.config.Shards {
		if _, exists := s.shards.Load(shardConfig.ShardID); exists {
			return fmt.Errorf("shard %d is configured twice", shardConfig.ShardID)
		}

		switch shardConfig.Type {

		// Case local shop
		case common.ShardTypeLocalIShop:
			s.shards.Store(shardConfig.ShardID, serverShard{
				Shop:    lshop.NewLocalShop(dbFactory),
				Adapter: NewIShopServerAdapter(),
			})
			Logger.Infof("created local shop for shard %d", shardConfig.ShardID)

		// Case remote shop
		case common.ShardTypeRemoteIShop:
			if s.nodeHost == nil {
				return fmt.Errorf("node host is nil, cannot create remote shop")
			}

			// Start Raft for the shard
			if err := s.nodeHost.StartConcurrentReplica(
				s.config.ClusterMembers,
				false,
				dshop.CreateStateMachineFactory(dbFactory),
				s.config.ToDragonboatConfig(shardConfig.ShardID),
			); err != nil {
				return fmt.Errorf("failed to start shard %d: %w", shardConfig.ShardID, err)
			}

			s.shards.Store(shardConfig.ShardID, serverShard{
				Shop:    dshop.NewDistributedShop(s.nodeHost, shardConfig.ShardID, timeout),
				Adapter: NewIShopServerAdapter(),
			})
			Logger.Infof("started replica %d of remote shop for shard %d", s.config.ReplicaID, shardConfig.ShardID)

		default:
			return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
		}
	}

	Logger.Infof("dShop setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// seed seeds all shards with the configured catalog.
// Local shards are seeded synchronously. Replicated shards are seeded in the background
// by the member with the lowest replica id only, so the catalog is not proposed twice.
func (s *RPCServer) seed(ctx context.Context) error {
	products, err := catalog.Load(s.config.SeedFile)
	if err != nil {
		return err
	}

	for _, shardConfig := range s.config.Shards {
		shard, _ := s.shards.Load(shardConfig.ShardID)

		if shardConfig.Type == common.ShardTypeLocalIShop {
			if _, err := catalog.Seed(shard.Shop, products); err != nil {
				return fmt.Errorf("failed to seed shard %d: %w", shardConfig.ShardID, err)
			}
			continue
		}

		if !s.isSeedingReplica() {
			Logger.Debugf("replica %d does not seed shard %d", s.config.ReplicaID, shardConfig.ShardID)
			continue
		}
		go seedWithRetry(ctx, shardConfig.ShardID, shard.Shop, products)
	}
	return nil
}

// isSeedingReplica reports whether this node has the lowest replica id of the cluster
func (s *RPCServer) isSeedingReplica() bool {
	ids := make([]uint64, 0, len(s.config.ClusterMembers))
	for id := range s.config.ClusterMembers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return len(ids) > 0 && ids[0] == s.config.ReplicaID
}

// seedWithRetry retries seeding a replicated shard until it succeeds or ctx is done
func seedWithRetry(ctx context.Context, shardID uint64, s shop.IShop, products []model.InsertProduct) {
	for attempt := 1; ; attempt++ {
		_, err := catalog.Seed(s, products)
		if err == nil {
			return
		}
		// validation errors will not go away by retrying
		if shop.CodeOf(err) == shop.RetCInvalidInput {
			Logger.Errorf("failed to seed shard %d: %v", shardID, err)
			return
		}
		Logger.Debugf("seeding shard %d failed (attempt %d): %v", shardID, attempt, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(seedRetryInterval):
		}
	}
}
