package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFileYAML(t *testing.T) {
	path := writeFile(t, "client.yaml", `
endpoint: http://localhost:8000/graphql
wsEndpoint: ws://localhost:8000/graphql
headers:
  Authorization: Bearer token-1
cacheSize: 64
timeout: 30s
handshakeTimeout: 5s
retry:
  maxAttempts: 4
  initialBackoff: 250ms
  maxBackoff: 10s
  multiplier: 1.5
logLevel: debug
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/graphql", cfg.Endpoint)
	assert.Equal(t, "ws://localhost:8000/graphql", cfg.WSEndpoint)
	assert.Equal(t, "Bearer token-1", cfg.Headers["Authorization"])
	assert.Equal(t, 64, cfg.CacheSize)

	policy := cfg.Policy()
	assert.Equal(t, 4, policy.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, policy.InitialBackoff)
	assert.Equal(t, 10*time.Second, policy.MaxBackoff)
	assert.Equal(t, 1.5, policy.Multiplier)
}

func TestLoadFromFileJSON(t *testing.T) {
	path := writeFile(t, "client.json", `{"endpoint":"http://api.example.com/graphql"}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com/graphql", cfg.Endpoint)
	assert.Equal(t, 128, cfg.CacheSize, "defaults are applied on load")
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoadFromFileEmpty(t *testing.T) {
	path := writeFile(t, "empty.yaml", "")
	_, err := LoadFromFile(path)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoadFromFileBadSyntax(t *testing.T) {
	_, err := LoadFromFile(writeFile(t, "bad.yaml", "endpoint: [unclosed"))
	assert.ErrorIs(t, err, ErrInvalidYAML)

	_, err = LoadFromFile(writeFile(t, "bad.json", "{"))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestValidate(t *testing.T) {
	cfg := &ClientConfig{}
	assert.ErrorIs(t, cfg.Validate(), ErrNoEndpoint)

	cfg.Endpoint = "::not a url"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidEndpoint)

	cfg.Endpoint = "http://ok/graphql"
	cfg.Timeout = "soon"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidDuration)

	cfg.Timeout = "10s"
	assert.NoError(t, cfg.Validate())
}

func TestClientConstruction(t *testing.T) {
	cfg := &ClientConfig{Endpoint: "http://localhost:8000/graphql"}
	c, err := cfg.Client()
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, 0, c.CacheLen())
}

func TestPolicyDefaults(t *testing.T) {
	cfg := &ClientConfig{Endpoint: "http://x/graphql"}
	policy := cfg.Policy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, policy.InitialBackoff)
}
