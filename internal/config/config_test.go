package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/livescore/internal/config"
)

type testConfig struct {
	HTTP struct {
		Port int32
	}

	Redis struct {
		Addrs  []string
		Prefix string
	}

	Broadcast struct {
		Interval time.Duration
	}
}

func TestLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
http:
  port: 8080
redis:
  addrs: ["redis:6379"]
broadcast:
  interval: 250ms
`), 0o600))

	t.Setenv("HTTP_PORT", "9090")

	var c testConfig
	c.Redis.Prefix = "livescore"
	c.Broadcast.Interval = time.Second

	require.NoError(t, config.Load(file, &c))

	assert.Equal(t, int32(9090), c.HTTP.Port, "environment should override the file")
	assert.Equal(t, []string{"redis:6379"}, c.Redis.Addrs)
	assert.Equal(t, "livescore", c.Redis.Prefix, "defaults should survive when absent from the file")
	assert.Equal(t, 250*time.Millisecond, c.Broadcast.Interval)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("LIVESCORE_REDIS_PREFIX", "staging")
	t.Setenv("REDIS_PREFIX", "ignored")

	var c testConfig
	c.HTTP.Port = 8080
	c.Redis.Prefix = "livescore"

	require.NoError(t, config.Load("", &c, config.WithEnvPrefix("LIVESCORE")))

	assert.Equal(t, int32(8080), c.HTTP.Port)
	assert.Equal(t, "staging", c.Redis.Prefix)
}

func TestLoad_MissingFile(t *testing.T) {
	var c testConfig
	assert.Error(t, config.Load(filepath.Join(t.TempDir(), "missing.yaml"), &c))
}
