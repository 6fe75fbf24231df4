package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/treasurehunt/internal/flagx"
	"github.com/dmitrijs2005/treasurehunt/internal/timex"
)

// JsonConfig is the on-disk shape of the server config file. Durations are
// timex.Duration so both "30s" and integer nanoseconds are accepted.
// Absent keys leave the current value untouched.
type JsonConfig struct {
	ListenAddr       string          `json:"listen_addr"`
	StorageDir       string          `json:"storage_dir"`
	ActivityLogPath  string          `json:"activity_log_path"`
	ChunkSize        int             `json:"chunk_size"`
	IdleTimeout      *timex.Duration `json:"idle_timeout"`
	MaxConnections   *int            `json:"max_connections"`
	ShutdownGrace    *timex.Duration `json:"shutdown_grace"`
	HealthAddr       string          `json:"health_addr"`
	EventStoreDriver string          `json:"event_store_driver"`
	EventStoreDSN    string          `json:"event_store_dsn"`
	LogLevel         string          `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config onto
// config. Without the flag nothing happens. An unreadable or malformed file
// panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.StorageDir, c.StorageDir)
	setString(&config.ActivityLogPath, c.ActivityLogPath)
	if c.ChunkSize > 0 {
		config.ChunkSize = c.ChunkSize
	}
	if c.IdleTimeout != nil {
		config.IdleTimeout = c.IdleTimeout.Duration
	}
	if c.MaxConnections != nil {
		config.MaxConnections = *c.MaxConnections
	}
	if c.ShutdownGrace != nil {
		config.ShutdownGrace = c.ShutdownGrace.Duration
	}
	setString(&config.HealthAddr, c.HealthAddr)
	setString(&config.EventStoreDriver, c.EventStoreDriver)
	setString(&config.EventStoreDSN, c.EventStoreDSN)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
