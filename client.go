package gamenight

import (
	"context"
	"fmt"
	"sync"

	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/WelcomerTeam/Gamenight/pkg/keylock"
	"github.com/rs/zerolog"
	"github.com/sasha-s/go-csync"
	"go.uber.org/atomic"
)

// Client ties together the REST client, the shared state and the shards of
// one bot.
type Client struct {
	Logger zerolog.Logger

	Configuration *Configuration

	REST        *HTTPClient
	RateLimiter *RateLimiter
	State       *State
	Router      *EventRouter
	Commands    *CommandRouter

	// GuildLocks serializes work on a single guild, such as a running game.
	GuildLocks *keylock.Locks[discord.Snowflake]

	applicationMu csync.Mutex

	identifyLimiter *IdentifyLimiter
	gatewayURL      *atomic.String
	shardCount      *atomic.Int32

	shardsMu sync.RWMutex
	shards   map[int32]*Shard
}

func NewClient(logger zerolog.Logger, configuration *Configuration, handlers EventHandlers) (*Client, error) {
	if err := configuration.Validate(); err != nil {
		return nil, err
	}

	client := &Client{
		Logger:        logger,
		Configuration: configuration,

		RateLimiter: NewRateLimiter(),
		State:       NewState(),
		GuildLocks:  keylock.New[discord.Snowflake](64),

		identifyLimiter: NewIdentifyLimiter(1),
		gatewayURL:      atomic.NewString(configuration.Gateway.URL),
		shardCount:      atomic.NewInt32(0),

		shards: make(map[int32]*Shard),
	}

	client.State.CacheMessages = configuration.Cache.Messages
	client.State.GuildRemoved = func(guildID discord.Snowflake) {
		client.GuildLocks.Forget(guildID)
	}

	client.REST = NewHTTPClient(logger, configuration.Token, configuration.REST, client.RateLimiter)
	client.Commands = NewCommandRouter(client.GuildLocks)
	client.Router = NewEventRouter(client, handlers, configuration.Events.HandlerConcurrency, configuration.Events.Blacklist)

	return client, nil
}

// ApplicationID returns the id of the bot application. The first call fetches
// it from the API unless READY already provided it.
func (c *Client) ApplicationID(ctx context.Context) (discord.Snowflake, error) {
	if applicationID := c.State.ApplicationID(); !applicationID.IsNil() {
		return applicationID, nil
	}

	if err := c.applicationMu.CLock(ctx); err != nil {
		return 0, err
	}

	defer c.applicationMu.Unlock()

	if applicationID := c.State.ApplicationID(); !applicationID.IsNil() {
		return applicationID, nil
	}

	application, err := c.GetCurrentApplication(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch application id: %w", err)
	}

	return c.State.SetApplicationID(application.ID), nil
}

// GatewayURL is the url new sessions connect to.
func (c *Client) GatewayURL() string {
	return c.gatewayURL.Load()
}

// Shard returns a running shard.
func (c *Client) Shard(shardID int32) (*Shard, bool) {
	c.shardsMu.RLock()
	defer c.shardsMu.RUnlock()

	sh, ok := c.shards[shardID]

	return sh, ok
}

// ShardFor returns the shard receiving events for guildID.
func (c *Client) ShardFor(guildID discord.Snowflake) (*Shard, bool) {
	shardCount := int64(c.shardCount.Load())
	if shardCount == 0 {
		return nil, false
	}

	return c.Shard(int32((int64(guildID) >> 22) % shardCount))
}

// ShardStatuses returns the status of every shard keyed by shard id.
func (c *Client) ShardStatuses() map[int32]ShardStatus {
	c.shardsMu.RLock()
	defer c.shardsMu.RUnlock()

	statuses := make(map[int32]ShardStatus, len(c.shards))
	for shardID, sh := range c.shards {
		statuses[shardID] = sh.Status()
	}

	return statuses
}

// UpdatePresence changes the presence on every shard.
func (c *Client) UpdatePresence(ctx context.Context, presence discord.UpdateStatus) error {
	c.shardsMu.RLock()
	shards := make([]*Shard, 0, len(c.shards))
	for _, sh := range c.shards {
		shards = append(shards, sh)
	}
	c.shardsMu.RUnlock()

	for _, sh := range shards {
		if err := sh.UpdatePresence(ctx, presence); err != nil {
			return fmt.Errorf("failed to update presence on shard %d: %w", sh.ShardID, err)
		}
	}

	return nil
}
