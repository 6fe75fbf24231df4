package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:6000", "-s", "/srv/treasure", "-l", "/var/log/th.txt",
				"-k", "4096", "-i", "90s", "-m", "64", "-g", "2s", "-health", ":6001",
				"-e", "sqlite", "-d", "events.db", "-v", "debug",
			},
			expected: &Config{
				ListenAddr:       "127.0.0.1:6000",
				StorageDir:       "/srv/treasure",
				ActivityLogPath:  "/var/log/th.txt",
				ChunkSize:        4096,
				IdleTimeout:      90 * time.Second,
				MaxConnections:   64,
				ShutdownGrace:    2 * time.Second,
				HealthAddr:       ":6001",
				EventStoreDriver: "sqlite",
				EventStoreDSN:    "events.db",
				LogLevel:         "debug",
			},
		},
		{
			name: "unknown flags and config flag are ignored",
			args: []string{"cmd", "-c", "cfg.json", "-x", "1", "-a=:7000"},
			expected: &Config{
				ListenAddr: ":7000",
			},
		},
		{
			name:        "bad duration",
			args:        []string{"cmd", "-i", "soon"},
			expectPanic: true,
		},
		{
			name:        "bad int",
			args:        []string{"cmd", "-m", "many"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
