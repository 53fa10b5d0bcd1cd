package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, ArtifactFile, cfg.ArtifactBackend)
	assert.Equal(t, "he", cfg.Locale)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Contains(t, cfg.CORSAllowedOrigins, "http://localhost:5173")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "8088")
	t.Setenv("LLM_TIMEOUT_MS", "1500")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LLM_TEMPERATURE", "0.5")
	t.Setenv("STORE_BACKEND", StoreSQLite)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.HTTPPort)
	assert.Equal(t, 1500*time.Millisecond, cfg.LLMTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.InDelta(t, 0.5, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, StoreSQLite, cfg.StoreBackend)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intake.yaml")
	content := []byte("http_port: 7000\nllm_provider: mock\nlocale: en\nllm_timeout: 5s\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "7100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.HTTPPort)
	assert.Equal(t, ProviderMock, cfg.LLMProvider)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.StoreBackend = "etcd"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.ArtifactBackend = ArtifactS3
	assert.Error(t, cfg.Validate())
	cfg.S3Bucket = "plans"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.LLMProvider = "gemini"
	assert.Error(t, cfg.Validate())
}
