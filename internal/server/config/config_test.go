package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":5556", c.ListenAddr)
	assert.Equal(t, "shared_treasures", c.StorageDir)
	assert.Equal(t, "server_log.txt", c.ActivityLogPath)
	assert.Equal(t, 32*1024, c.ChunkSize)
	assert.Zero(t, c.IdleTimeout)
	assert.Zero(t, c.MaxConnections)
	assert.Equal(t, 5*time.Second, c.ShutdownGrace)
	assert.Empty(t, c.HealthAddr)
	assert.Empty(t, c.EventStoreDriver)
	assert.Empty(t, c.EventStoreDSN)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	c := LoadConfig()
	require.NotNil(t, c, "LoadConfig must not return nil")

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *c)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"listen_addr": ":7000",
		"storage_dir": "from-json",
	})
	os.Args = []string{"testbin", "-c", path, "-a", ":8000"}

	c := LoadConfig()
	assert.Equal(t, ":8000", c.ListenAddr)
	assert.Equal(t, "from-json", c.StorageDir)
	assert.Equal(t, "server_log.txt", c.ActivityLogPath)
}
