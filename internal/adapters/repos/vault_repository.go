package repos

import (
	"context"
	"fmt"

	"github.com/architeacher/svc-queue-client/internal/config"
	"github.com/hashicorp/vault/api"
)

// VaultRepository is the KV access used by the config loader.
type VaultRepository struct {
	client *api.Client
}

// NewVaultClient builds a client for the configured Vault address. Client
// side retries are off; the config loader retries reads itself.
func NewVaultClient(cfg config.SecretStorageConfig) (*api.Client, error) {
	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address
	vaultConfig.Timeout = cfg.Timeout
	vaultConfig.MaxRetries = 0

	if cfg.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&api.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	return client, nil
}

func NewVaultRepository(client *api.Client) *VaultRepository {
	return &VaultRepository{client: client}
}

func (r *VaultRepository) SetToken(token string) {
	r.client.SetToken(token)
}

// GetSecrets returns nil without error when nothing is stored at path.
func (r *VaultRepository) GetSecrets(ctx context.Context, path string) (*api.Secret, error) {
	secret, err := r.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("vault read %s: %w", path, err)
	}

	return secret, nil
}

func (r *VaultRepository) WriteWithContext(ctx context.Context, path string, data map[string]any) (*api.Secret, error) {
	secret, err := r.client.Logical().WriteWithContext(ctx, path, data)
	if err != nil {
		return nil, fmt.Errorf("vault write %s: %w", path, err)
	}

	return secret, nil
}
