package util

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kvdb-io/kvdb-go/rpc/client"
	"github.com/kvdb-io/kvdb-go/rpc/common"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds the common connection flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	defaults := common.DefaultClientConfig()

	key := "server"
	cmd.PersistentFlags().String(key, defaults.ServerAddress, WrapString("The host:port of the KVDB server (gRPC endpoint)"))

	key = "protocol"
	cmd.PersistentFlags().String(key, defaults.Protocol, WrapString("Transport protocol to use (grpc, http, ws)"))

	key = "connect-timeout"
	cmd.PersistentFlags().Duration(key, defaults.ConnectionTimeout, WrapString("Timeout for establishing the connection"))

	key = "request-timeout"
	cmd.PersistentFlags().Duration(key, defaults.RequestTimeout, WrapString("Timeout for a single request"))

	key = "retries"
	cmd.PersistentFlags().Int(key, defaults.MaxRetries, WrapString("How many times to retry the connection setup"))

	key = "compression"
	cmd.PersistentFlags().Bool(key, defaults.EnableCompression, WrapString("Whether to enable wire compression where the transport supports it"))

	key = "http-url"
	cmd.PersistentFlags().String(key, "", WrapString("Base URL of the HTTP endpoint. Derived from the server address if unset."))

	key = "async-limit"
	cmd.PersistentFlags().Int(key, defaults.AsyncLimit, WrapString("Upper bound for concurrently executing async requests"))

	key = "log-level"
	cmd.PersistentFlags().String(key, defaults.LogLevel, WrapString("Log level (debug, info, warn, error)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("kvdb")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetClientConfig reads the client configuration from viper
func GetClientConfig() common.ClientConfig {
	config := common.DefaultClientConfig()
	config.ServerAddress = viper.GetString("server")
	config.Protocol = viper.GetString("protocol")
	config.ConnectionTimeout = viper.GetDuration("connect-timeout")
	config.RequestTimeout = viper.GetDuration("request-timeout")
	config.MaxRetries = viper.GetInt("retries")
	config.EnableCompression = viper.GetBool("compression")
	config.HTTPBaseURL = viper.GetString("http-url")
	config.AsyncLimit = viper.GetInt("async-limit")
	config.LogLevel = viper.GetString("log-level")
	return config
}

// NewConnectedClient builds a client from the viper configuration and
// connects it
func NewConnectedClient(cmd *cobra.Command) (*client.KVDBClient, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}

	c, err := client.NewKVDBClient(GetClientConfig())
	if err != nil {
		return nil, err
	}
	if err := c.Connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// FormatDuration renders a duration with millisecond precision for output
func FormatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
