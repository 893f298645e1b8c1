package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, "bekker2024", cfg.Admin.Password)
	assert.Equal(t, 12*time.Hour, cfg.Admin.TokenTTL)
	assert.Equal(t, "https://sandbox.payfast.co.za/eng/process", cfg.PayFast.ProcessURL)
	assert.Equal(t, cfg.PayFast.Passphrase, cfg.PayFast.NotifyPassphrase)
	assert.Equal(t, cfg.PayFast.MerchantID, cfg.PayFast.NotifyMerchantID)
	assert.Equal(t, int64(10*1024*1024), cfg.Security.MaxUploadSize)
	assert.False(t, cfg.Cloudinary.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DATA_DIR", "/var/lib/gallery")
	t.Setenv("PAYFAST_MERCHANT_ID", "10041723")
	t.Setenv("PAYFAST_NOTIFY_MERCHANT_ID", "12447061")
	t.Setenv("PAYFAST_NOTIFY_PASSPHRASE", "itn-secret")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "/var/lib/gallery", cfg.Storage.DataDir)
	assert.Equal(t, "10041723", cfg.PayFast.MerchantID)
	assert.Equal(t, "12447061", cfg.PayFast.NotifyMerchantID)
	assert.Equal(t, "itn-secret", cfg.PayFast.NotifyPassphrase)
	assert.True(t, cfg.Cloudinary.Enabled())
}

func TestLoad_ProductionRejectsDevSecret(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret")
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}
