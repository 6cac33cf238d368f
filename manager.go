package gamenight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Interval between message cache sweeps.
var MessageEjectInterval = time.Minute

// Open starts every configured shard and blocks until ctx is cancelled or a
// shard fails. In flight handlers are awaited before returning.
func (c *Client) Open(ctx context.Context) error {
	c.Commands.Seal()

	gateway, err := c.GetGatewayBot(ctx)
	if err != nil {
		return err
	}

	shardCount := c.Configuration.Sharding.ShardCount
	if shardCount == 0 {
		shardCount = max(gateway.Shards, 1)
	}

	shardIDs, err := returnRange(c.Configuration.Sharding.ShardIDs, shardCount)
	if err != nil {
		return err
	}

	if len(shardIDs) == 0 {
		return ErrNoShards
	}

	if c.Configuration.Gateway.URL == "" {
		c.gatewayURL.Store(gateway.URL)
	}

	c.shardCount.Store(shardCount)
	c.identifyLimiter = NewIdentifyLimiter(gateway.SessionStartLimit.MaxConcurrency)

	c.Logger.Info().
		Int32("shard_count", shardCount).
		Int("shards", len(shardIDs)).
		Int32("session_starts_remaining", gateway.SessionStartLimit.Remaining).
		Msg("Starting shards")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shards := make([]*Shard, 0, len(shardIDs))

	c.shardsMu.Lock()
	for _, shardID := range shardIDs {
		sh := NewShard(c, shardID, shardCount)
		c.shards[shardID] = sh
		shards = append(shards, sh)
	}
	c.shardsMu.Unlock()

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		shardErr error
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		c.Router.Events.Run(ctx)
	}()

	if c.State.CacheMessages && c.Configuration.Cache.MessageTTL > 0 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			c.ejectMessages(ctx, c.Configuration.Cache.MessageTTL)
		}()
	}

	for _, sh := range shards {
		wg.Add(1)

		go func(sh *Shard) {
			defer wg.Done()

			if err := sh.Open(ctx); err != nil {
				errMu.Lock()
				shardErr = errors.Join(shardErr, fmt.Errorf("shard %d: %w", sh.ShardID, err))
				errMu.Unlock()

				cancel()
			}
		}(sh)
	}

	wg.Wait()
	c.Router.Wait()

	c.Logger.Info().Msg("All shards stopped")

	return shardErr
}

func (c *Client) ejectMessages(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(MessageEjectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if ejected := c.State.EjectMessages(now.Add(-ttl)); ejected > 0 {
				c.Logger.Debug().Int("count", ejected).Msg("Ejected cached messages")
			}

			c.State.RecordMetrics()
		}
	}
}
