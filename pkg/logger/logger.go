package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/user/vulnscan-adk/pkg/config"
)

// NewLogger builds a named logger writing to stderr so report output on
// stdout stays machine readable.
func NewLogger(cfg *config.Config, name string) hclog.Logger {
	return newLogger(cfg, name, os.Stderr)
}

func newLogger(cfg *config.Config, name string, out io.Writer) hclog.Logger {
	var logLevel hclog.Level

	if cfg != nil && cfg.LogLevel != "" {
		logLevel = getLogLevel(strings.ToUpper(cfg.LogLevel))
	} else {
		// env variables has the second priority
		logLevel = getLogLevel(strings.ToUpper(os.Getenv("VULNSCAN_LOG_LEVEL")))
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:        name,
		DisableTime: true,
		Output:      out,
		Level:       logLevel,
	})
}

// OrNull returns l, or a logger that discards everything when l is nil.
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}

func getLogLevel(levelStr string) hclog.Level {
	switch levelStr {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	default:
		return hclog.Info
	}
}
