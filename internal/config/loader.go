package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/architeacher/svc-queue-client/internal/ports"
	"github.com/hashicorp/vault/api"
	"github.com/kelseyhightower/envconfig"
)

const redacted = "[redacted]"

var errSecretStorageDisabled = errors.New("secret storage is not enabled")

// secretSetters maps Vault keys onto the configuration they override.
var secretSetters = map[string]func(cfg *ServiceConfig, value string) error{
	"RABBITMQ_URL": func(cfg *ServiceConfig, value string) error {
		cfg.Queue.URL = value

		return nil
	},
	"RABBITMQ_PROFILES": func(cfg *ServiceConfig, value string) error {
		return cfg.Queue.Profiles.Decode(value)
	},
	"RABBITMQ_QUEUE_NAME": func(cfg *ServiceConfig, value string) error {
		cfg.Queue.QueueName = value

		return nil
	},
	"RABBITMQ_MANAGEMENT_URL": func(cfg *ServiceConfig, value string) error {
		cfg.Management.URL = value

		return nil
	},
	"RABBITMQ_MANAGEMENT_USERNAME": func(cfg *ServiceConfig, value string) error {
		cfg.Management.Username = value

		return nil
	},
	"RABBITMQ_MANAGEMENT_PASSWORD": func(cfg *ServiceConfig, value string) error {
		cfg.Management.Password = value

		return nil
	},
}

// Loader pulls broker secrets from Vault KV v2 and keeps them current.
type Loader struct {
	cfg          *ServiceConfig
	secretsRepo  ports.SecretsRepository
	signals      chan os.Signal
	reloadErrors chan error
	lastVersion  uint
	retryDelay   time.Duration
	dumpOutput   io.Writer
}

func NewLoader(cfg *ServiceConfig, secretsRepo ports.SecretsRepository, initialVersion uint) *Loader {
	return &Loader{
		cfg:          cfg,
		secretsRepo:  secretsRepo,
		signals:      make(chan os.Signal, 1),
		reloadErrors: make(chan error, 1),
		lastVersion:  initialVersion,
		retryDelay:   time.Second,
		dumpOutput:   os.Stdout,
	}
}

// Init config from environment variables.
func Init() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("unable to parse service configuration: %w", err)
	}

	if ServiceVersion != "" {
		cfg.AppConfig.ServiceVersion = ServiceVersion
	}

	if CommitSHA != "" {
		cfg.AppConfig.CommitSHA = CommitSHA
	}

	if APIVersion != "" {
		cfg.AppConfig.APIVersion = APIVersion
	}

	return cfg, nil
}

// WatchConfigSignals reloads on SIGHUP and on every poll tick, and dumps the
// configuration on SIGUSR1. Reload outcomes are reported on the returned
// channel, nil meaning success. The channel closes when ctx ends.
func (l *Loader) WatchConfigSignals(ctx context.Context) <-chan error {
	signal.Notify(l.signals, syscall.SIGHUP, syscall.SIGUSR1)

	var ticker *time.Ticker

	ticks := make(<-chan time.Time)

	if l.cfg.SecretStorage.Enabled && l.cfg.SecretStorage.PollInterval > 0 {
		ticker = time.NewTicker(l.cfg.SecretStorage.PollInterval)
		ticks = ticker.C
	}

	go func() {
		defer close(l.reloadErrors)
		defer signal.Stop(l.signals)

		if ticker != nil {
			defer ticker.Stop()
		}

		for {
			select {
			case <-ctx.Done():
				return

			case <-ticks:
				l.handleConfigReload(ctx)

			case sig := <-l.signals:
				if sig == syscall.SIGUSR1 {
					l.DumpConfig()

					continue
				}

				l.handleConfigReload(ctx)
			}
		}
	}()

	return l.reloadErrors
}

// DumpConfig writes the current configuration as JSON with credentials
// redacted.
func (l *Loader) DumpConfig() {
	snapshot := *l.cfg

	for _, field := range []*string{
		&snapshot.Management.Password,
		&snapshot.SecretStorage.Token,
		&snapshot.SecretStorage.SecretID,
	} {
		if *field != "" {
			*field = redacted
		}
	}

	configJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		fmt.Fprintf(l.dumpOutput, "Error marshaling config: %v\n", err)

		return
	}

	fmt.Fprintf(l.dumpOutput, "\n=== Configuration Dump ===\n%s\n=== End Configuration ===\n\n", configJSON)
}

// Load authenticates, reads the service secret once and applies it to cfg.
// It returns the KV version that was applied.
func (l *Loader) Load(ctx context.Context, secretsRepo ports.SecretsRepository, cfg *ServiceConfig) (uint, error) {
	if !cfg.SecretStorage.Enabled {
		return 0, errSecretStorageDisabled
	}

	if err := authenticateVault(ctx, secretsRepo, cfg.SecretStorage); err != nil {
		return 0, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	data, metadata, err := l.readSecret(ctx, secretsRepo, cfg.SecretStorage)
	if err != nil {
		return 0, fmt.Errorf("failed to load secrets from Vault: %w", err)
	}

	if err := applySecrets(cfg, data); err != nil {
		return 0, fmt.Errorf("failed to apply secrets to config: %w", err)
	}

	version, err := secretVersion(metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to get secret version: %w", err)
	}

	return version, nil
}

func (l *Loader) handleConfigReload(ctx context.Context) {
	data, metadata, err := l.readSecret(ctx, l.secretsRepo, l.cfg.SecretStorage)
	if err != nil {
		l.reportReloadStatus(fmt.Errorf("failed to load secrets from Vault: %w", err))

		return
	}

	version, err := secretVersion(metadata)
	if err != nil {
		l.reportReloadStatus(fmt.Errorf("failed to get secret version: %w", err))

		return
	}

	if version == l.lastVersion {
		return
	}

	if err := applySecrets(l.cfg, data); err != nil {
		l.reportReloadStatus(fmt.Errorf("failed to apply secrets to config: %w", err))

		return
	}

	l.lastVersion = version
	l.reportReloadStatus(nil)
}

// readSecret reads apps/data/<mount> and splits the KV v2 envelope into its
// data and metadata maps.
func (l *Loader) readSecret(ctx context.Context, secretsRepo ports.SecretsRepository, cfg SecretStorageConfig) (map[string]any, map[string]any, error) {
	path := "apps/data/" + cfg.MountPath

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var (
		secret *api.Secret
		err    error
	)

	for attempt := 0; ; attempt++ {
		secret, err = secretsRepo.GetSecrets(ctx, path)
		if err == nil || attempt >= cfg.MaxRetries {
			break
		}

		timer := time.NewTimer(time.Duration(attempt+1) * l.retryDelay)

		select {
		case <-ctx.Done():
			timer.Stop()

			return nil, nil, fmt.Errorf("failed to read from path %s: %w", path, ctx.Err())
		case <-timer.C:
		}
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to read from path %s after %d retries: %w", path, cfg.MaxRetries, err)
	}

	if secret == nil || secret.Data == nil {
		return nil, nil, nil
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("invalid secret format at path %s, missing 'data' key", path)
	}

	metadata, _ := secret.Data["metadata"].(map[string]any)

	return data, metadata, nil
}

func (l *Loader) reportReloadStatus(err error) {
	select {
	case l.reloadErrors <- err:
	default:
	}
}

func authenticateVault(ctx context.Context, client ports.SecretsRepository, cfg SecretStorageConfig) error {
	switch strings.ToLower(cfg.AuthMethod) {
	case "token":
		if cfg.Token == "" {
			return errors.New("token is required for token auth method")
		}

		client.SetToken(cfg.Token)

		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return errors.New("role_id and secret_id are required for approle auth method")
		}

		resp, err := client.WriteWithContext(ctx, "auth/approle/login", map[string]any{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return fmt.Errorf("failed to authenticate via approle: %w", err)
		}

		if resp == nil || resp.Auth == nil {
			return errors.New("no auth info returned from Vault")
		}

		client.SetToken(resp.Auth.ClientToken)

		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// applySecrets copies known keys onto cfg and mirrors every non-empty string
// into the environment so a later Init sees it too.
func applySecrets(cfg *ServiceConfig, data map[string]any) error {
	for key, value := range data {
		strValue, ok := value.(string)
		if !ok || strValue == "" {
			continue
		}

		if err := os.Setenv(key, strValue); err != nil {
			return fmt.Errorf("failed to set environment variable %s: %w", key, err)
		}

		if setter, known := secretSetters[key]; known {
			if err := setter(cfg, strValue); err != nil {
				return fmt.Errorf("failed to decode %s: %w", key, err)
			}
		}
	}

	return nil
}

func secretVersion(metadata map[string]any) (uint, error) {
	currentVersion, ok := metadata["current_version"]
	if !ok {
		return 0, nil
	}

	switch v := currentVersion.(type) {
	case float64:
		return uint(v), nil
	case uint:
		return v, nil
	case json.Number:
		version, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("failed to parse version: %w", err)
		}

		return uint(version), nil
	default:
		return 0, fmt.Errorf("unexpected version type: %T", currentVersion)
	}
}
