package queue

import (
	"context"
	"fmt"
	"sync"
)

// ConnectionCache lazily establishes and shares one connection per profile.
type ConnectionCache struct {
	config  Config
	dialer  Dialer
	logger  Logger
	metrics Metrics

	mutex   sync.Mutex
	entries map[string]*future[Connection]
}

// NewConnectionCache creates an empty cache dialing through dialer.
func NewConnectionCache(cfg Config, dialer Dialer, logger Logger, metrics Metrics) *ConnectionCache {
	if logger == nil {
		logger = NopLogger()
	}

	if metrics == nil {
		metrics = NoOpMetrics{}
	}

	return &ConnectionCache{
		config:  cfg,
		dialer:  dialer,
		logger:  logger,
		metrics: metrics,
		entries: make(map[string]*future[Connection]),
	}
}

// Get returns the connection for profile, dialing it on first use. Callers
// arriving while the dial is pending receive the same connection. A failed
// dial is evicted before it is reported, so the next call dials again.
func (c *ConnectionCache) Get(ctx context.Context, profile string) (Connection, error) {
	entry, err := c.acquire(ctx, profile)
	if err != nil {
		return nil, err
	}

	return entry.await(ctx)
}

// Peek returns the established connection for profile without blocking.
func (c *ConnectionCache) Peek(profile string) (Connection, bool) {
	entry, ok := c.lookup(profile)
	if !ok {
		return nil, false
	}

	return entry.peek()
}

// Close closes the cached connection for profile exactly once and clears the
// entry. It is a no-op when nothing is cached.
func (c *ConnectionCache) Close(ctx context.Context, profile string) error {
	entry, ok := c.lookup(profile)
	if !ok {
		return nil
	}

	conn, err := entry.await(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}

		return nil
	}

	if !c.evict(profile, entry) {
		return nil
	}

	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection for profile %q: %w", profile, err)
	}

	c.logger.Info().Str("profile", profile).Msg("connection closed")

	return nil
}

func (c *ConnectionCache) acquire(ctx context.Context, profile string) (*future[Connection], error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry, ok := c.entries[profile]; ok {
		return entry, nil
	}

	url, err := c.config.profileURL(profile)
	if err != nil {
		return nil, err
	}

	host, err := serverName(url)
	if err != nil {
		return nil, err
	}

	entry := newFuture[Connection]()
	c.entries[profile] = entry

	go c.establish(context.WithoutCancel(ctx), profile, url, host, entry)

	return entry, nil
}

func (c *ConnectionCache) establish(ctx context.Context, profile, url, host string, entry *future[Connection]) {
	c.logger.Debug().Str("profile", profile).Str("host", host).Msg("connecting to RabbitMQ")

	conn, err := c.dialer.Dial(ctx, url, DialOptions{ServerName: host})
	if err != nil {
		c.evict(profile, entry)
		c.metrics.RecordConnection(ctx, profile, false)
		c.logger.Error().Err(err).Str("profile", profile).Msg("failed to connect to RabbitMQ")

		entry.resolve(nil, &BrokerConnectError{Profile: profile, Host: host, Err: err})

		return
	}

	c.metrics.RecordConnection(ctx, profile, true)

	// A connection the broker drops is evicted so the next Get redials.
	conn.OnTermination(func() {
		if c.evict(profile, entry) {
			c.logger.Info().Str("profile", profile).Msg("connection evicted after termination")
		}
	})

	entry.resolve(conn, nil)
}

func (c *ConnectionCache) lookup(profile string) (*future[Connection], bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[profile]

	return entry, ok
}

// evict removes the entry for profile only if it is still entry.
func (c *ConnectionCache) evict(profile string, entry *future[Connection]) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.entries[profile] != entry {
		return false
	}

	delete(c.entries, profile)

	return true
}
