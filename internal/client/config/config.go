package config

import "time"

// Config holds runtime settings for the treasure hunt client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the treasure server.
//   - DownloadDir: where revealed files (and their .part files) are written.
//   - DialTimeout: bound on establishing the TCP connection.
type Config struct {
	ServerEndpointAddr string
	DownloadDir        string
	DialTimeout        time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:5556"
	c.DownloadDir = "."
	c.DialTimeout = 5 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
