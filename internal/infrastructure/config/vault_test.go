package config

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVault_SecretKey(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves secret from config table", func(t *testing.T) {
		vault := NewVault(AmazonConfig{
			Secrets: map[string]string{"akiaexample": "s3cret"},
		})

		secret, err := vault.SecretKey(ctx, "AKIAEXAMPLE")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", secret)
	})

	t.Run("environment variable takes precedence", func(t *testing.T) {
		os.Setenv("AMZCON_SECRET_AKIAEXAMPLE", "env-secret")
		defer os.Unsetenv("AMZCON_SECRET_AKIAEXAMPLE")

		vault := NewVault(AmazonConfig{
			Secrets: map[string]string{"akiaexample": "file-secret"},
		})

		secret, err := vault.SecretKey(ctx, "AKIAEXAMPLE")
		require.NoError(t, err)
		assert.Equal(t, "env-secret", secret)
	})

	t.Run("normalizes dashes and dots in env key", func(t *testing.T) {
		os.Setenv("AMZCON_SECRET_EU_MAIN", "eu-secret")
		defer os.Unsetenv("AMZCON_SECRET_EU_MAIN")

		vault := NewVault(AmazonConfig{})

		secret, err := vault.SecretKey(ctx, "eu-main")
		require.NoError(t, err)
		assert.Equal(t, "eu-secret", secret)
	})

	t.Run("unknown reference returns error", func(t *testing.T) {
		vault := NewVault(AmazonConfig{})

		_, err := vault.SecretKey(ctx, "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no secret configured")
	})
}
