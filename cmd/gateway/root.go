package gateway

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ValentinKolb/dShop/api"
	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/rpc/client"
	"github.com/ValentinKolb/dShop/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// GatewayCmd serves the REST api for a shard of a remote dShop server
var GatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Serve the REST api backed by a remote dShop shard",
	Long:  `Start a REST api server that forwards every operation to a shard of a dShop server over RPC. Several gateways can serve the same shard. The configuration can be set via command line flags or environment variables (DSHOP_<flag>)`,
	RunE:  run,
}

func init() {
	cobra.OnInitialize(util.InitConfig)

	util.SetupRPCClientFlags(GatewayCmd)
	util.SetupAPIFlags(GatewayCmd, "0.0.0.0:3000")

	key := "log-level"
	GatewayCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

func run(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}
	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	shardID := util.GetShardID()
	shop, err := client.NewRPCShop(shardID, *util.GetClientConfig(), t, s)
	if err != nil {
		return err
	}

	apiServer := api.NewServer(util.GetAPIConfig(shardID), shop)
	defer apiServer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return apiServer.Serve(ctx)
}
