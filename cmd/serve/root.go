package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ValentinKolb/dShop/api"
	cmdUtil "github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/rpc/common"
	"github.com/ValentinKolb/dShop/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the dShop server",
		Long:    `Start the dShop server (RPC and REST api) with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DSHOP_<flag> (e.g. DSHOP_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100=lshop", cmdUtil.WrapString("Comma-separated list of shards to serve. Format: ID=TYPE where TYPE is one of: lshop (local shop), dshop (raft replicated shop)"))

	key = "rtt-millisecond"
	ServeCmd.PersistentFlags().Int(key, 100, cmdUtil.WrapString("(dshop) RTTMillisecond defines the average Round Trip Time (RTT) in milliseconds between two NodeHost instances. \nOther raft configuration parameters (ElectionRTT=value*10, HeartbeatRTT=value*1) are derived from this value"))

	key = "snapshot-entries"
	ServeCmd.PersistentFlags().Int(key, 10, cmdUtil.WrapString("(dshop) SnapshotEntries defines how often the state machine should be snapshotted automatically. It is defined in terms of the number of applied Raft log entries. SnapshotEntries can be set to 0 to disable such automatic snapshotting (not recommended)"))

	key = "compaction-overhead"
	ServeCmd.PersistentFlags().Int(key, 5, cmdUtil.WrapString("(dshop) CompactionOverhead defines the number of log entries to keep after compaction. Recommended value is about 1/2 of SnapshotEntries"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("(dshop) DataDir is the directory used for storing the raft log and the snapshots"))

	key = "replica-id"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("(dshop) ReplicaID is the unique identifier for this NodeHost instance (e.g. 'node-1')"))

	key = "cluster-members"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("(dshop) ClusterMembers is a comma-separated list of NodeHost addresses in the format 'node-1=localhost:63001,node-2=localhost:63002,...'"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("(dshop) Timeout in seconds of proposals and reads"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the RPC server will listen (e.g. localhost:8080, /tmp/dshop.sock, ...)"))

	key = "workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 16, cmdUtil.WrapString("How many requests of a single connection are handled concurrently (tcp, unix)"))

	key = "max-frame-size"
	ServeCmd.PersistentFlags().Int(key, common.DefaultMaxFrameSize/1024, cmdUtil.WrapString("The largest accepted request (in KB). Connections sending larger frames are closed"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "stats-interval"
	ServeCmd.PersistentFlags().Duration(key, 0, cmdUtil.WrapString("How often the per operation timings of the RPC server are logged (e.g. 1m). 0 disables it"))

	key = "seed"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Seed empty shards with the product catalog"))

	key = "seed-file"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional yaml file with the product catalog to seed, the built-in catalog is used if empty"))

	key = "api-shard"
	ServeCmd.PersistentFlags().Uint64(key, 0, cmdUtil.WrapString("The shard exposed by the REST api (defaults to the first configured shard)"))

	cmdUtil.SetupAPIFlags(ServeCmd, "0.0.0.0:3000")
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	shards, err := parseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}
	serveCmdConfig.Shards = shards

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.RTTMillisecond = viper.GetUint64("rtt-millisecond")
	serveCmdConfig.SnapshotEntries = viper.GetUint64("snapshot-entries")
	serveCmdConfig.CompactionOverhead = viper.GetUint64("compaction-overhead")
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Transport.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.Transport.WorkersPerConn = viper.GetInt("workers-per-conn")
	serveCmdConfig.Transport.MaxFrameSize = viper.GetInt("max-frame-size") * 1024
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.StatsInterval = viper.GetDuration("stats-interval")
	serveCmdConfig.Seed = viper.GetBool("seed")
	serveCmdConfig.SeedFile = viper.GetString("seed-file")

	// parse replica id
	if id := viper.GetString("replica-id"); id != "" {
		serveCmdConfig.ReplicaID = cmdUtil.ReplicaID(id)
	} else if serveCmdConfig.HasRemoteShard() {
		// error only if cluster mode
		return fmt.Errorf("ReplicaId is required for dshop shards")
	}

	// parse cluster members
	if clusterMembers := viper.GetString("cluster-members"); clusterMembers != "" {
		members, err := parseClusterMembers(clusterMembers)
		if err != nil {
			return err
		}
		serveCmdConfig.ClusterMembers = members
	} else if serveCmdConfig.HasRemoteShard() {
		// error only if cluster mode
		return fmt.Errorf("ClusterMembers is required for dshop shards")
	}

	// test if the replica id is in the cluster members (only for cluster mode)
	if _, ok := serveCmdConfig.ClusterMembers[serveCmdConfig.ReplicaID]; !ok && serveCmdConfig.HasRemoteShard() {
		return fmt.Errorf("no address found for replica ID %d in cluster members", serveCmdConfig.ReplicaID)
	}

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// parseShards parses a list like "100=lshop,200=dshop"
func parseShards(shardsConfig string) ([]common.ServerShard, error) {
	var shards []common.ServerShard
	for _, shardConfig := range cmdUtil.SplitList(shardsConfig) {
		parts := strings.Split(shardConfig, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid shard format: %s (expected ID=TYPE)", shardConfig)
		}

		// Parse shard ID
		shardID, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard ID %s: %v", parts[0], err)
		}

		// Parse shard type
		var shardType common.ServerShardType
		switch strings.TrimSpace(parts[1]) {
		case "lshop":
			shardType = common.ShardTypeLocalIShop
		case "dshop":
			shardType = common.ShardTypeRemoteIShop
		default:
			return nil, fmt.Errorf("invalid shard type: %s (expected one of: lshop, dshop)", parts[1])
		}

		shards = append(shards, common.ServerShard{ShardID: shardID, Type: shardType})
	}

	if len(shards) == 0 {
		return nil, fmt.Errorf("at least one shard is required")
	}
	return shards, nil
}

// parseClusterMembers parses a list like "node-1=localhost:63001,node-2=localhost:63002"
func parseClusterMembers(clusterMembers string) (map[uint64]string, error) {
	members := make(map[uint64]string)
	for _, member := range cmdUtil.SplitList(clusterMembers) {
		parts := strings.Split(member, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid cluster member format: %s (expected ID=address)", member)
		}
		members[cmdUtil.ReplicaID(strings.TrimSpace(parts[0]))] = strings.TrimSpace(parts[1])
	}
	return members, nil
}

// run starts the RPC server and (if enabled) the REST api until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	rpcServer := server.NewRPCServer(*serveCmdConfig, t, s)
	defer rpcServer.Close()

	// create the shards before the REST api accesses them
	if err := rpcServer.Init(); err != nil {
		return err
	}

	// resolve the shop of the REST api before anything is started
	var apiServer *api.Server
	if viper.GetString("api-endpoint") != "" {
		shardID := viper.GetUint64("api-shard")
		if shardID == 0 {
			shardID = serveCmdConfig.Shards[0].ShardID
		}

		shop, ok := rpcServer.Shop(shardID)
		if !ok {
			return fmt.Errorf("api shard %d is not served by this node", shardID)
		}
		apiServer = api.NewServer(cmdUtil.GetAPIConfig(shardID), shop)
		defer apiServer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// a failing server stops the other one
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rpcServer.Serve(ctx)
	})

	if apiServer != nil {
		g.Go(func() error {
			return apiServer.Serve(ctx)
		})
	}

	return g.Wait()
}
