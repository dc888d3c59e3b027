package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LINKSEAL_SECRETS", "")
	t.Setenv("LINKSEAL_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultAddress, cfg.Address)
	assert.Equal(t, defaultPublicURL, cfg.PublicURL)
	assert.Equal(t, int64(defaultMaxFileSize), cfg.MaxFileSize)
	assert.Equal(t, "md5", cfg.SigningHash)
	assert.Equal(t, defaultSignedTTL, cfg.SignedURLTTL)
	assert.True(t, cfg.GeneratedSecret)
	require.Len(t, cfg.SigningSecrets, 1)
	assert.Len(t, cfg.SigningSecrets[0], 64)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Contains(t, cfg.AllowedTypes, "application/pdf")
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LINKSEAL_ADDRESS", ":9000")
	t.Setenv("LINKSEAL_PUBLIC_URL", "https://links.example.com/")
	t.Setenv("LINKSEAL_SECRETS", "new-secret, old-secret ,")
	t.Setenv("LINKSEAL_HASH", "sha256")
	t.Setenv("LINKSEAL_SIGNED_TTL", "90s")
	t.Setenv("LINKSEAL_TRUST_PROXY", "true")
	t.Setenv("LINKSEAL_JWT_SECRET", "jwt")
	t.Setenv("LINKSEAL_WORKERS", "-1")
	t.Setenv("LINKSEAL_REDIS_DB", "3")
	t.Setenv("LINKSEAL_RATE_WINDOW", "bogus")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Address)
	assert.Equal(t, "https://links.example.com", cfg.PublicURL)
	assert.Equal(t, []string{"new-secret", "old-secret"}, cfg.SigningSecrets)
	assert.False(t, cfg.GeneratedSecret)
	assert.Equal(t, "sha256", cfg.SigningHash)
	assert.Equal(t, 90*time.Second, cfg.SignedURLTTL)
	assert.True(t, cfg.TrustProxy)
	assert.Equal(t, []byte("jwt"), cfg.JWTSecret)
	assert.Equal(t, defaultWorkerCount, cfg.ProcessingPool)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, defaultRateWindow, cfg.RateWindow)
}

func TestRandomSecret(t *testing.T) {
	a, err := RandomSecret(16)
	require.NoError(t, err)
	b, err := RandomSecret(16)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
