package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRead_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"redis": {"nodes": [{"host": "localhost", "port": 6379}]}
	}`)

	cfg := NewConfig()
	require.NoError(t, cfg.Read(path))

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(50), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 60, cfg.RateLimit.WindowSeconds)
	assert.Equal(t, 300, cfg.Convert.TimeoutSeconds)
	assert.Equal(t, 3600, cfg.Convert.CacheTTLSeconds)
	assert.Equal(t, "blender", cfg.Convert.BlenderBin)
	assert.Equal(t, "fs", cfg.Artifacts.Backend)
	assert.Equal(t, int64(50<<20), cfg.MaxFileSizeBytes())
}

func TestRead_RejectsMissingRedisNodes(t *testing.T) {
	path := writeConfig(t, `{"redis": {"nodes": []}}`)

	cfg := NewConfig()
	assert.Error(t, cfg.Read(path))
}

func TestRead_RejectsBadArtifactBackend(t *testing.T) {
	path := writeConfig(t, `{
		"redis": {"nodes": [{"host": "localhost", "port": 6379}]},
		"artifacts": {"backend": "ftp"}
	}`)

	cfg := NewConfig()
	assert.Error(t, cfg.Read(path))
}

func TestRead_RejectsNegativeLimits(t *testing.T) {
	path := writeConfig(t, `{
		"redis": {"nodes": [{"host": "localhost", "port": 6379}]},
		"rate_limit": {"max_requests": -1}
	}`)

	cfg := NewConfig()
	assert.Error(t, cfg.Read(path))
}

func TestRead_MissingFile(t *testing.T) {
	cfg := NewConfig()
	assert.Error(t, cfg.Read(filepath.Join(t.TempDir(), "nope.json")))
}

func TestRead_InvalidJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)

	cfg := NewConfig()
	assert.Error(t, cfg.Read(path))
}
