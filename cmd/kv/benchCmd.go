package kv

import (
	"context"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kvdb-io/kvdb-go/cmd/util"
)

var (
	benchCmd = &cobra.Command{
		Use:     "bench",
		Short:   "Benchmarking tool for KVDB servers",
		RunE:    runBench,
		PreRunE: processBenchConfig,
	}
	benchKeyPrefix        = "__bench"
	benchLargeValueSizeKB = 100
	benchNumThreads       = 10
	benchKeySpread        = 100
	benchSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	benchCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "threads"
	benchCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	benchCmd.Flags().Int(key, 100, util.WrapString("How large the value for the put-large test should be (in KB)"))
	key = "keys"
	benchCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	benchLargeValueSizeKB = viper.GetInt("large-value-size")
	benchKeySpread = viper.GetInt("keys")
	benchNumThreads = viper.GetInt("threads")
	benchSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runBench(_ *cobra.Command, _ []string) error {
	fmt.Println("Benchmarking tool for KVDB servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	clientConfig := util.GetClientConfig()
	fmt.Println(clientConfig.String())
	fmt.Printf("Threads: %d\n", benchNumThreads)
	fmt.Println()

	fmt.Println("starting benchmarks...")

	runOne("put", func(counter int) error {
		return kvdbClient.Put(context.Background(), benchKey("put", counter), "test")
	})

	largeValue := strings.Repeat("x", benchLargeValueSizeKB*1024)
	runOne("put-large", func(counter int) error {
		return kvdbClient.Put(context.Background(), benchKey("put-large", counter), largeValue)
	})

	runOne("get", func(counter int) error {
		_, _, err := kvdbClient.Get(context.Background(), benchKey("put", counter))
		return err
	})

	runOne("batch-get", func(counter int) error {
		keys := make([]string, 10)
		for i := range keys {
			keys[i] = benchKey("put", counter+i)
		}
		_, err := kvdbClient.BatchGet(context.Background(), keys)
		return err
	})

	// cleanup the keyspace
	for _, name := range []string{"put", "put-large"} {
		for i := 0; i < benchKeySpread; i++ {
			if err := kvdbClient.Delete(context.Background(), benchKey(name, i)); err != nil {
				log.Printf("(%s) - error deleting key: %v\n", name, err)
			}
		}
	}
	return nil
}

// runOne drives one benchmark with the configured parallelism and prints
// throughput plus latency percentiles
func runOne(name string, op func(counter int) error) {
	if shouldSkip(name) {
		fmt.Printf("%-12s skipped\n", name)
		return
	}

	timer := metrics.NewTimer()

	result := testing.Benchmark(func(b *testing.B) {
		b.SetParallelism(benchNumThreads)
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				if err := op(counter); err != nil {
					log.Printf("(%s) - operation failed: %v\n", name, err)
				}
				timer.UpdateSince(start)
				counter++
			}
		})
	})

	opsPerSec := float64(result.N) / result.T.Seconds()
	fmt.Printf("%-12s %8.0f ops/s  p50=%-10s p95=%-10s p99=%-10s max=%s\n",
		name,
		opsPerSec,
		time.Duration(timer.Percentile(0.50)).Round(time.Microsecond),
		time.Duration(timer.Percentile(0.95)).Round(time.Microsecond),
		time.Duration(timer.Percentile(0.99)).Round(time.Microsecond),
		time.Duration(timer.Max()).Round(time.Microsecond),
	)
}

// benchKey spreads operations over a bounded keyspace
func benchKey(name string, counter int) string {
	return fmt.Sprintf("%s-%s-%d", benchKeyPrefix, name, counter%benchKeySpread)
}

func shouldSkip(name string) bool {
	for _, skip := range benchSkip {
		if strings.TrimSpace(skip) == name {
			return true
		}
	}
	return false
}
