// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the treasure hunt server.
//
// Fields:
//   - ListenAddr: TCP bind address of the protocol listener.
//   - StorageDir: flat directory holding the stored files.
//   - ActivityLogPath: append-only activity log file.
//   - ChunkSize: bytes moved per read/write while streaming payloads.
//   - IdleTimeout: closes sessions idle for this long (0 disables).
//   - MaxConnections: concurrent session cap (0 disables).
//   - ShutdownGrace: how long live sessions may finish on shutdown.
//   - HealthAddr: gRPC health endpoint address ("" disables).
//   - EventStoreDriver / EventStoreDSN: optional SQL copy of the activity
//     log; driver is "pgx" or "sqlite", "" disables.
//   - LogLevel: operational log level (debug, info, warn, error).
type Config struct {
	ListenAddr       string
	StorageDir       string
	ActivityLogPath  string
	ChunkSize        int
	IdleTimeout      time.Duration
	MaxConnections   int
	ShutdownGrace    time.Duration
	HealthAddr       string
	EventStoreDriver string
	EventStoreDSN    string
	LogLevel         string
}

// LoadDefaults populates Config with the stock settings.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":5556"
	c.StorageDir = "shared_treasures"
	c.ActivityLogPath = "server_log.txt"
	c.ChunkSize = 32 * 1024
	c.IdleTimeout = 0
	c.MaxConnections = 0
	c.ShutdownGrace = 5 * time.Second
	c.HealthAddr = ""
	c.EventStoreDriver = ""
	c.EventStoreDSN = ""
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
