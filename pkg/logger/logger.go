// Package logger configures the process-wide zerolog logger shared by
// cmd/server and cmd/worker. Everything downstream logs through
// zerolog.Logger values directly; there are no wrapper helpers here.
package logger

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets up the global logger for env: human-readable console output
// and debug level in development, JSON at info level everywhere else.
func Init(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}
