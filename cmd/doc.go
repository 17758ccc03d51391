// Package cmd implements the command-line interface for the KVDB client. It
// provides a hierarchical command structure mirroring the full operation set
// of the SDK, so every server capability can be exercised manually.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value operations (get, put, del, batch, scan,
//     snapshots) and a benchmark mode
//   - admin: Commands for maintenance operations (flush, compact, stats, health)
//   - watch: Command for following change streams
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See kvdbctl -help for a list of all commands.
package cmd
