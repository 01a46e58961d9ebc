package queue

import (
	"errors"
	"fmt"
)

const (
	msgNoConnection = "No RabbitMQ connection"
	msgNoQueue      = "No RabbitMQ queue"
	msgNoChannel    = "No RabbitMQ channel"
)

var (
	// ErrConfig matches every *ConfigError through errors.Is.
	ErrConfig = errors.New("queue configuration error")
	// ErrBrokerConnect matches every *BrokerConnectError through errors.Is.
	ErrBrokerConnect = errors.New("broker connect error")
)

type (
	// ConfigError reports an operation attempted before its prerequisite setup
	// was completed. The caller must finish the setup and retry.
	ConfigError struct {
		Message string
	}

	// BrokerConnectError reports a failed dial. The failed cache entry has
	// already been evicted when the caller receives it.
	BrokerConnectError struct {
		Profile string
		Host    string
		Err     error
	}
)

func newConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return e.Message
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func (e *BrokerConnectError) Error() string {
	return fmt.Sprintf("failed to connect to RabbitMQ profile %q at %s: %v", e.Profile, e.Host, e.Err)
}

func (e *BrokerConnectError) Unwrap() error {
	return e.Err
}

func (e *BrokerConnectError) Is(target error) bool {
	return target == ErrBrokerConnect
}
