package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	secretsDir = t.TempDir()

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "kobold", cfg.LLMBackend)
	assert.Equal(t, 8, cfg.ConvoMaxContinuations)
	assert.Equal(t, 65536, cfg.ConvoMaxResponseBytes)
	assert.Equal(t, time.Second, cfg.LLMReconnectBaseDelay)
	assert.Equal(t, 60*time.Second, cfg.LLMReconnectMaxDelay)
	assert.Equal(t, "simple medieval village surrounded by farmlands, with a forest nearby", cfg.StartPrompt)
}

func TestLoadConfig_SecretsFromFiles(t *testing.T) {
	dir := t.TempDir()
	secretsDir = dir
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("s3cret\n"), 0o600))
	t.Setenv("DB_PASSWORD", "from-env")
	t.Setenv("JWT_SECRET", "jwt-from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.DBPassword)
	assert.Equal(t, "jwt-from-env", cfg.JWTSecret)
	assert.NotContains(t, cfg.MaskedDSN(), "s3cret")
}

func TestLoadConfig_RejectsUnknownBackend(t *testing.T) {
	secretsDir = t.TempDir()
	t.Setenv("LLM_BACKEND", "carrier-pigeon")

	_, err := LoadConfig()
	assert.Error(t, err)
}
