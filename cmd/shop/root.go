package shop

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/lib/model"
	ishop "github.com/ValentinKolb/dShop/lib/shop"
	"github.com/ValentinKolb/dShop/rpc/client"
	"github.com/ValentinKolb/dShop/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcShop ishop.IShop

	// ShopCommands represents the shop command group
	ShopCommands = &cobra.Command{
		Use:               "shop",
		Short:             "Perform shop operations on a dShop server",
		PersistentPreRunE: setupShopClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the shop command
	util.SetupRPCClientFlags(ShopCommands)

	key := "log-level"
	ShopCommands.PersistentFlags().String(key, "warn", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	// Add subcommands
	ShopCommands.AddCommand(productCmd)
	ShopCommands.AddCommand(userCmd)
	ShopCommands.AddCommand(cartCmd)
	ShopCommands.AddCommand(orderCmd)
	ShopCommands.AddCommand(infoCmd)
	ShopCommands.AddCommand(perfTestCmd)
}

// setupShopClient initializes the RPC shop client
func setupShopClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	shardId := util.GetShardID()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the shop client
	rpcShop, err = client.NewRPCShop(
		shardId,
		*config,
		t,
		s,
	)

	return err
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Shows metadata about the database of the shard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := rpcShop.GetDBInfo()
		if err != nil {
			return err
		}
		return printJSON(info)
	},
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// printJSON prints v as indented JSON
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// parseID parses a positional id argument
func parseID(name, arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", name, err)
	}
	return id, nil
}

// parseQuantity parses a positional quantity argument
func parseQuantity(arg string) (int64, error) {
	quantity, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("quantity must be a number: %w", err)
	}
	if err := model.ValidateQuantity(quantity); err != nil {
		return 0, err
	}
	return quantity, nil
}
