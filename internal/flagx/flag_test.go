package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-a", ":5556", "-x", "1"},
			allowed: []string{"-a"},
			want:    []string{"-a", ":5556"},
		},
		{
			name:    "equals form",
			args:    []string{"-d=shared", "-a", ":1"},
			allowed: []string{"-d"},
			want:    []string{"-d=shared"},
		},
		{
			name:    "unknown flags dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "flag at the end without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next dash token is not a value",
			args:    []string{"-c", "-m", "10"},
			allowed: []string{"-c", "-m"},
			want:    []string{"-c", "-m", "10"},
		},
		{
			name:    "order and repeats preserved",
			args:    []string{"-l", "a.log", "-l", "b.log"},
			allowed: []string{"-l"},
			want:    []string{"-l", "a.log", "-l", "b.log"},
		},
		{
			name:    "empty",
			args:    []string{},
			allowed: []string{"-a"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short", func(t *testing.T) {
		os.Args = []string{"bin", "-c", "/etc/treasure.json"}
		assert.Equal(t, "/etc/treasure.json", ConfigFileFlag())
	})

	t.Run("long with other flags", func(t *testing.T) {
		os.Args = []string{"bin", "-a", ":5556", "-config", "cfg.json"}
		assert.Equal(t, "cfg.json", ConfigFileFlag())
	})

	t.Run("absent", func(t *testing.T) {
		os.Args = []string{"bin", "-a", ":5556"}
		assert.Empty(t, ConfigFileFlag())
	})

	t.Run("last wins", func(t *testing.T) {
		os.Args = []string{"bin", "-c", "one.json", "-config", "two.json"}
		assert.Equal(t, "two.json", ConfigFileFlag())
	})
}
