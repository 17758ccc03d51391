package common

import (
	"fmt"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --------------------------------------------------------------------------
// Named Loggers
// --------------------------------------------------------------------------

var (
	// rootLevel is shared by all named loggers so SetLogLevel takes effect
	// everywhere at once
	rootLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	loggers   = xsync.NewMapOf[string, *zap.SugaredLogger]()
)

// GetLogger returns the named logger, creating it on first use. All loggers
// share one level and one console encoder.
func GetLogger(name string) *zap.SugaredLogger {
	logger, _ := loggers.LoadOrCompute(name, func() *zap.SugaredLogger {
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

		cfg := zap.Config{
			Level:            rootLevel,
			Encoding:         "console",
			EncoderConfig:    encoderCfg,
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
		}

		base, err := cfg.Build()
		if err != nil {
			// The static config above cannot fail to build
			panic(fmt.Sprintf("logger setup failed: %v", err))
		}
		return base.Named(name).Sugar()
	})
	return logger
}

// SetLogLevel sets the level for all named loggers
func SetLogLevel(level string) error {
	parsed, err := parseLogLevel(level)
	if err != nil {
		return err
	}
	rootLevel.SetLevel(parsed)
	return nil
}

// parseLogLevel converts a string level to a zap level
func parseLogLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warning", "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}
