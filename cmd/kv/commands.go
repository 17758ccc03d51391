package kv

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Stores the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kvdbClient.Put(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("put successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, found, err := kvdbClient.Get(context.Background(), key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, value=%s\n", key, found, value)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key-value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kvdbClient.Delete(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	batchPutCmd = &cobra.Command{
		Use:   "batch-put [key=value]...",
		Short: "Stores multiple key-value pairs in one request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs := make([]common.KeyValue, 0, len(args))
			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("argument %q is not of the form key=value", arg)
				}
				pairs = append(pairs, common.KeyValue{Key: key, Value: value})
			}
			if err := kvdbClient.BatchPut(context.Background(), pairs); err != nil {
				return err
			}
			fmt.Printf("batch put of %d pairs successful\n", len(pairs))
			return nil
		},
	}
	batchGetCmd = &cobra.Command{
		Use:   "batch-get [key]...",
		Short: "Reads multiple keys in one request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := kvdbClient.BatchGet(context.Background(), args)
			if err != nil {
				return err
			}
			printPairs(pairs)
			return nil
		},
	}
	scanCmd = &cobra.Command{
		Use:   "scan [startKey] [endKey]",
		Short: "Reads all key-value pairs in a key range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt32("limit")
			if err != nil {
				return err
			}
			pairs, err := kvdbClient.Scan(context.Background(), common.ScanOptions{
				StartKey: args[0],
				EndKey:   args[1],
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			printPairs(pairs)
			return nil
		},
	}
	prefixCmd = &cobra.Command{
		Use:   "prefix [prefix]",
		Short: "Reads all key-value pairs whose keys share a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt32("limit")
			if err != nil {
				return err
			}
			pairs, err := kvdbClient.PrefixScan(context.Background(), args[0], limit)
			if err != nil {
				return err
			}
			printPairs(pairs)
			return nil
		},
	}

	snapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "Work with server-side snapshots",
	}
	snapshotCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Creates a new snapshot and prints its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := kvdbClient.CreateSnapshot(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("snapshot_id=%d\n", snap.ID)
			return nil
		},
	}
	snapshotReleaseCmd = &cobra.Command{
		Use:   "release [id]",
		Short: "Releases a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id must be a number: %w", err)
			}
			if err := kvdbClient.ReleaseSnapshot(context.Background(), common.Snapshot{ID: id}); err != nil {
				return err
			}
			fmt.Println("release successfully")
			return nil
		},
	}
	snapshotGetCmd = &cobra.Command{
		Use:   "get [id] [key]",
		Short: "Reads the value for a key as of a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id must be a number: %w", err)
			}
			key := args[1]
			value, found, err := kvdbClient.GetAtSnapshot(context.Background(), key, common.Snapshot{ID: id})
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, value=%s\n", key, found, value)
			return nil
		},
	}
)

func init() {
	scanCmd.Flags().Int32("limit", 0, "Maximum number of pairs to return (0 for unlimited)")
	prefixCmd.Flags().Int32("limit", 0, "Maximum number of pairs to return (0 for unlimited)")

	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotReleaseCmd)
	snapshotCmd.AddCommand(snapshotGetCmd)
}

func printPairs(pairs []common.KeyValue) {
	for _, pair := range pairs {
		fmt.Printf("%s=%s\n", pair.Key, pair.Value)
	}
	fmt.Printf("(%d pairs)\n", len(pairs))
}
