package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/treasurehunt/internal/flagx"
	"github.com/dmitrijs2005/treasurehunt/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. DialTimeout
// accepts "3s" style strings or integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr string          `json:"server_endpoint_addr"`
	DownloadDir        string          `json:"download_dir"`
	DialTimeout        *timex.Duration `json:"dial_timeout"`
}

// parseJson overlays Config with values loaded from the JSON file given by
// -c or -config. Keys missing from the file keep their current value.
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DownloadDir != "" {
		cfg.DownloadDir = jc.DownloadDir
	}
	if jc.DialTimeout != nil {
		cfg.DialTimeout = jc.DialTimeout.Duration
	}
}
