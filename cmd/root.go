package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kvdb-io/kvdb-go/cmd/admin"
	"github.com/kvdb-io/kvdb-go/cmd/kv"
	"github.com/kvdb-io/kvdb-go/cmd/watch"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvdbctl",
		Short: "command-line client for KVDB servers",
		Long: fmt.Sprintf(`kvdbctl (v%s)

A manual test harness for KVDB servers. All operations of the client SDK
are available as subcommands and can be run over gRPC, HTTP or WebSocket.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvdbctl",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvdbctl v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(admin.AdminCommands)
	RootCmd.AddCommand(watch.WatchCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
