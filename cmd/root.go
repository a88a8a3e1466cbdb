package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dShop/cmd/gateway"
	"github.com/ValentinKolb/dShop/cmd/serve"
	"github.com/ValentinKolb/dShop/cmd/shop"
	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dshop",
		Short: "distributed shop backend",
		Long: fmt.Sprintf(`dShop (v%s)

An e-commerce backend written in Go. Users, products, carts and orders are kept
in memory and can be replicated with RAFT. The shop is served over RPC and as a
REST api for the storefront.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dShop",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dShop v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(gateway.GatewayCmd)
	RootCmd.AddCommand(shop.ShopCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
