package admin

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kvdb-io/kvdb-go/cmd/util"
	"github.com/kvdb-io/kvdb-go/rpc/client"
)

var (
	kvdbClient *client.KVDBClient

	// AdminCommands represents the admin command group
	AdminCommands = &cobra.Command{
		Use:               "admin",
		Short:             "Perform server maintenance operations",
		PersistentPreRunE: setupClient,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if kvdbClient != nil {
				return kvdbClient.Close()
			}
			return nil
		},
	}

	flushCmd = &cobra.Command{
		Use:   "flush",
		Short: "Asks the server to persist its memtable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kvdbClient.Flush(context.Background()); err != nil {
				return err
			}
			fmt.Println("flush successfully")
			return nil
		},
	}
	compactCmd = &cobra.Command{
		Use:   "compact",
		Short: "Asks the server to run a compaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kvdbClient.Compact(context.Background()); err != nil {
				return err
			}
			fmt.Println("compact successfully")
			return nil
		},
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Prints the server's statistics summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := kvdbClient.GetStats(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("memtable_size    : %d\n", stats.MemtableSize)
			fmt.Printf("wal_size         : %d\n", stats.WALSize)
			fmt.Printf("cache_hit_rate   : %.2f\n", stats.CacheHitRate)
			fmt.Printf("active_snapshots : %d\n", stats.ActiveSnapshots)
			return nil
		},
	}
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Verifies the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kvdbClient.Ping(context.Background()); err != nil {
				fmt.Printf("server unreachable: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("server is healthy")
			return nil
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitClientConfig)
	util.SetupClientFlags(AdminCommands)

	AdminCommands.AddCommand(flushCmd)
	AdminCommands.AddCommand(compactCmd)
	AdminCommands.AddCommand(statsCmd)
	AdminCommands.AddCommand(healthCmd)
}

func setupClient(cmd *cobra.Command, _ []string) (err error) {
	kvdbClient, err = util.NewConnectedClient(cmd)
	return err
}
