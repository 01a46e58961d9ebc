package queue

import (
	"context"
	"fmt"
	"sync"
)

type (
	// ChannelCache lazily establishes and shares one channel per profile and
	// queue name and remembers whether the queue was asserted on that channel.
	ChannelCache struct {
		logger  Logger
		metrics Metrics

		mutex   sync.Mutex
		entries map[ChannelKey]*channelEntry
	}

	// ChannelKey identifies a cached channel. Channels of the same queue on
	// different profiles live on different connections and never mix.
	ChannelKey struct {
		Profile string
		Queue   string
	}

	// channelEntry owns both the channel and its assertion memo, so removing
	// the entry evicts both in one step.
	channelEntry struct {
		channel     *future[Channel]
		asserted    *future[QueueInfo]
		unsubscribe func()
	}
)

// NewChannelCache creates an empty channel cache.
func NewChannelCache(logger Logger, metrics Metrics) *ChannelCache {
	if logger == nil {
		logger = NopLogger()
	}

	if metrics == nil {
		metrics = NoOpMetrics{}
	}

	return &ChannelCache{
		logger:  logger,
		metrics: metrics,
		entries: make(map[ChannelKey]*channelEntry),
	}
}

// Get returns the channel for key, opening it on conn when missing, and
// makes sure the queue was asserted on that channel exactly once.
func (c *ChannelCache) Get(ctx context.Context, conn Connection, key ChannelKey) (Channel, error) {
	entry, created := c.acquire(key)
	if created {
		go c.open(context.WithoutCancel(ctx), conn, key, entry)
	}

	ch, err := entry.channel.await(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.assert(ctx, ch, key, entry); err != nil {
		return nil, err
	}

	return ch, nil
}

// Peek returns the cached channel for key without blocking.
func (c *ChannelCache) Peek(key ChannelKey) (Channel, bool) {
	entry, ok := c.lookup(key)
	if !ok {
		return nil, false
	}

	return entry.channel.peek()
}

// Ready reports whether key has an open channel on which the queue was asserted.
func (c *ChannelCache) Ready(key ChannelKey) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok || entry.asserted == nil {
		return false
	}

	if _, ok := entry.channel.peek(); !ok {
		return false
	}

	_, ok = entry.asserted.peek()

	return ok
}

// Evict drops the entry for key and cancels its termination subscription.
func (c *ChannelCache) Evict(key ChannelKey) {
	var unsubscribe func()

	c.mutex.Lock()
	entry, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
		unsubscribe = entry.unsubscribe
	}
	c.mutex.Unlock()

	if !ok {
		return
	}

	if unsubscribe != nil {
		unsubscribe()
	}

	c.metrics.RecordChannelEviction(context.Background(), key.Queue, evictionExplicit)
	c.logger.Debug().Str("profile", key.Profile).Str("queue", key.Queue).Msg("channel evicted")
}

func (c *ChannelCache) acquire(key ChannelKey) (*channelEntry, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry, ok := c.entries[key]; ok {
		return entry, false
	}

	entry := &channelEntry{
		channel: newFuture[Channel](),
	}
	c.entries[key] = entry

	return entry, true
}

func (c *ChannelCache) lookup(key ChannelKey) (*channelEntry, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]

	return entry, ok
}

func (c *ChannelCache) open(ctx context.Context, conn Connection, key ChannelKey, entry *channelEntry) {
	ch, err := conn.Channel(ctx)
	if err != nil {
		c.remove(key, entry)
		c.metrics.RecordChannel(ctx, key.Queue, false)
		c.metrics.RecordChannelEviction(ctx, key.Queue, evictionFailed)
		c.logger.Error().Err(err).Str("profile", key.Profile).Str("queue", key.Queue).Msg("failed to create channel")

		entry.channel.resolve(nil, fmt.Errorf("failed to create channel for queue %s: %w", key.Queue, err))

		return
	}

	c.metrics.RecordChannel(ctx, key.Queue, true)

	// The subscription must exist before any caller receives the channel.
	unsubscribe := ch.OnTermination(func() {
		c.evictTerminated(key, entry)
	})

	c.mutex.Lock()
	entry.unsubscribe = unsubscribe
	stale := c.entries[key] != entry
	c.mutex.Unlock()

	entry.channel.resolve(ch, nil)

	if stale {
		unsubscribe()
	}
}

// assert runs the queue assertion once per entry. Callers arriving while it is
// pending wait for the same result; a failure clears the memo.
func (c *ChannelCache) assert(ctx context.Context, ch Channel, key ChannelKey, entry *channelEntry) error {
	c.mutex.Lock()
	memo := entry.asserted
	owner := memo == nil
	if owner {
		memo = newFuture[QueueInfo]()
		entry.asserted = memo
	}
	c.mutex.Unlock()

	if owner {
		go c.declare(context.WithoutCancel(ctx), ch, key, entry, memo)
	}

	_, err := memo.await(ctx)

	return err
}

func (c *ChannelCache) declare(ctx context.Context, ch Channel, key ChannelKey, entry *channelEntry, memo *future[QueueInfo]) {
	info, err := ch.AssertQueue(ctx, key.Queue, QueueOptions{Durable: false})
	if err != nil {
		c.mutex.Lock()
		if entry.asserted == memo {
			entry.asserted = nil
		}
		c.mutex.Unlock()

		c.metrics.RecordQueueAssertion(ctx, key.Queue, false)
		c.logger.Error().Err(err).Str("profile", key.Profile).Str("queue", key.Queue).Msg("failed to assert queue")

		memo.resolve(QueueInfo{}, err)

		return
	}

	if info.Name == "" {
		info.Name = key.Queue
	}

	c.metrics.RecordQueueAssertion(ctx, key.Queue, true)
	c.logger.Debug().Str("profile", key.Profile).Str("queue", key.Queue).Msg("queue asserted")

	memo.resolve(info, nil)
}

// evictTerminated runs on the channel's termination signal, outside any caller.
func (c *ChannelCache) evictTerminated(key ChannelKey, entry *channelEntry) {
	if !c.remove(key, entry) {
		return
	}

	c.metrics.RecordChannelEviction(context.Background(), key.Queue, evictionTerminated)
	c.logger.Info().Str("profile", key.Profile).Str("queue", key.Queue).Msg("dead channel evicted")
}

// remove deletes the entry for key only if it is still entry.
func (c *ChannelCache) remove(key ChannelKey, entry *channelEntry) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.entries[key] != entry {
		return false
	}

	delete(c.entries, key)

	return true
}
