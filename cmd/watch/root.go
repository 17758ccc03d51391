package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kvdb-io/kvdb-go/cmd/util"
	"github.com/kvdb-io/kvdb-go/rpc/client"
)

var (
	kvdbClient *client.KVDBClient

	// WatchCmd follows a change stream until interrupted
	WatchCmd = &cobra.Command{
		Use:   "watch [pattern]",
		Short: "Follows change events for keys matching a pattern",
		Long: util.WrapString(`Subscribes to change events for keys matching the given pattern and
prints them until interrupted. Requires a streaming transport (grpc).`),
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: setupClient,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if kvdbClient != nil {
				return kvdbClient.Close()
			}
			return nil
		},
		RunE: runWatch,
	}
)

func init() {
	cobra.OnInitialize(util.InitClientConfig)
	util.SetupClientFlags(WatchCmd)

	WatchCmd.Flags().Bool("deletes", true, util.WrapString("Whether to include delete events"))
}

func setupClient(cmd *cobra.Command, _ []string) (err error) {
	kvdbClient, err = util.NewConnectedClient(cmd)
	return err
}

func runWatch(cmd *cobra.Command, args []string) error {
	pattern := "*"
	if len(args) == 1 {
		pattern = args[0]
	}
	includeDeletes, err := cmd.Flags().GetBool("deletes")
	if err != nil {
		return err
	}

	sub, err := kvdbClient.Subscribe(context.Background(), pattern, includeDeletes)
	if err != nil {
		return err
	}
	defer sub.Cancel()

	fmt.Printf("watching pattern %q, press ctrl-c to stop\n", pattern)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				fmt.Println("stream closed by server")
				return nil
			}
			ts := time.Unix(0, int64(ev.Timestamp)).Format(time.RFC3339Nano)
			fmt.Printf("%s %-6s %s=%s\n", ts, ev.Operation, ev.Key, ev.Value)
		case <-interrupt:
			fmt.Println("stopping")
			return nil
		}
	}
}
