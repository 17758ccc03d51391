package kv

import (
	"github.com/spf13/cobra"

	"github.com/kvdb-io/kvdb-go/cmd/util"
	"github.com/kvdb-io/kvdb-go/rpc/client"
)

var (
	kvdbClient *client.KVDBClient

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform key-value operations",
		PersistentPreRunE: setupClient,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if kvdbClient != nil {
				return kvdbClient.Close()
			}
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common connection flags to the KV command
	util.SetupClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(batchPutCmd)
	KeyValueCommands.AddCommand(batchGetCmd)
	KeyValueCommands.AddCommand(scanCmd)
	KeyValueCommands.AddCommand(prefixCmd)
	KeyValueCommands.AddCommand(snapshotCmd)
	KeyValueCommands.AddCommand(benchCmd)
}

// setupClient connects the shared client for all kv subcommands
func setupClient(cmd *cobra.Command, _ []string) (err error) {
	kvdbClient, err = util.NewConnectedClient(cmd)
	return err
}
