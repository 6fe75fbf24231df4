package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/treasurehunt/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string       listen address (e.g., ":5556")
//	-s string       storage directory
//	-l string       activity log file
//	-k int          transfer chunk size, bytes
//	-i duration     session idle timeout (0 disables)
//	-m int          max concurrent connections (0 disables)
//	-g duration     shutdown grace period
//	-health string  gRPC health endpoint address
//	-e string       event store driver (pgx, sqlite)
//	-d string       event store DSN
//	-v string       log level
//
// os.Args is filtered with flagx.FilterArgs first, so flags meant for the
// JSON loader do not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-l", "-k", "-i", "-m", "-g", "-health", "-e", "-d", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.StorageDir, "s", config.StorageDir, "storage directory")
	fs.StringVar(&config.ActivityLogPath, "l", config.ActivityLogPath, "activity log file")
	fs.IntVar(&config.ChunkSize, "k", config.ChunkSize, "transfer chunk size in bytes")
	fs.DurationVar(&config.IdleTimeout, "i", config.IdleTimeout, "session idle timeout, 0 disables")
	fs.IntVar(&config.MaxConnections, "m", config.MaxConnections, "max concurrent connections, 0 disables")
	fs.DurationVar(&config.ShutdownGrace, "g", config.ShutdownGrace, "shutdown grace period")
	fs.StringVar(&config.HealthAddr, "health", config.HealthAddr, "gRPC health endpoint address")
	fs.StringVar(&config.EventStoreDriver, "e", config.EventStoreDriver, "event store driver (pgx, sqlite)")
	fs.StringVar(&config.EventStoreDSN, "d", config.EventStoreDSN, "event store DSN")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
