package config

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Vault resolves marketplace secret keys from configuration. An environment
// variable AMZCON_SECRET_<REF> takes precedence over the [amazon.secrets]
// table, so deployments can keep secrets out of the config file.
type Vault struct {
	secrets map[string]string
}

// NewVault creates a vault over the configured secrets table.
func NewVault(cfg AmazonConfig) *Vault {
	secrets := make(map[string]string, len(cfg.Secrets))
	for ref, secret := range cfg.Secrets {
		// viper lowercases table keys; access key references are matched
		// case-insensitively to compensate.
		secrets[strings.ToLower(ref)] = secret
	}
	return &Vault{secrets: secrets}
}

// SecretKey returns the secret key for an access key reference.
func (v *Vault) SecretKey(_ context.Context, ref string) (string, error) {
	envKey := "AMZCON_SECRET_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(ref))
	if secret := os.Getenv(envKey); secret != "" {
		return secret, nil
	}
	if secret, ok := v.secrets[strings.ToLower(ref)]; ok && secret != "" {
		return secret, nil
	}
	return "", fmt.Errorf("config: no secret configured for access key %q", ref)
}
