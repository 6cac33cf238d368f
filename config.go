package gamenight

import (
	"fmt"
	"os"
	"time"

	"github.com/WelcomerTeam/Gamenight/discord"
	"gopkg.in/yaml.v3"
)

const (
	EnvironmentToken = "GAMENIGHT_TOKEN"

	DefaultAPIURL              = "https://discord.com/api/v10"
	DefaultUserAgent           = "DiscordBot (https://github.com/WelcomerTeam/Gamenight, 1.0)"
	DefaultRequestTimeout      = 20 * time.Second
	DefaultRetryBudget         = 10 * time.Second
	DefaultMaxHeartbeatStrikes = 3
	DefaultPollInterval        = 200 * time.Millisecond
	DefaultMaxReconnectWait    = 60 * time.Second
	DefaultHandlerConcurrency  = 256
	DefaultLargeThreshold      = 250
	DefaultMessageTTL          = time.Hour
)

type Configuration struct {
	Token    string                `yaml:"token"`
	Intents  discord.GatewayIntent `yaml:"intents"`
	Presence discord.UpdateStatus  `yaml:"presence"`

	// OwnerID and GuildID identify the bot owner and an optional development
	// guild that commands are synced to instead of globally.
	OwnerID discord.Snowflake `yaml:"owner_id"`
	GuildID discord.Snowflake `yaml:"guild_id"`

	Sharding ShardingConfiguration `yaml:"sharding"`
	Gateway  GatewayConfiguration  `yaml:"gateway"`
	REST     RESTConfiguration     `yaml:"rest"`
	Events   EventsConfiguration   `yaml:"events"`
	Cache    CacheConfiguration    `yaml:"cache"`
	Status   StatusConfiguration   `yaml:"status"`
	Logging  LoggingConfiguration  `yaml:"logging"`
}

type ShardingConfiguration struct {
	// ShardCount of 0 uses the count recommended by discord.
	ShardCount int32 `yaml:"shard_count"`
	// ShardIDs is a range such as "0-3,6". Empty runs every shard.
	ShardIDs string `yaml:"shard_ids"`
}

type GatewayConfiguration struct {
	// URL overrides the url returned by get gateway bot.
	URL                 string        `yaml:"url"`
	Compress            bool          `yaml:"compress"`
	LargeThreshold      int32         `yaml:"large_threshold"`
	MaxHeartbeatStrikes int           `yaml:"max_heartbeat_strikes"`
	PollInterval        time.Duration `yaml:"poll_interval"`
	MaxReconnectWait    time.Duration `yaml:"max_reconnect_wait"`
}

type RESTConfiguration struct {
	BaseURL     string        `yaml:"base_url"`
	UserAgent   string        `yaml:"user_agent"`
	Timeout     time.Duration `yaml:"timeout"`
	RetryBudget time.Duration `yaml:"retry_budget"`
}

type EventsConfiguration struct {
	HandlerConcurrency int      `yaml:"handler_concurrency"`
	Blacklist          []string `yaml:"blacklist"`
}

type CacheConfiguration struct {
	Messages   bool          `yaml:"messages"`
	MessageTTL time.Duration `yaml:"message_ttl"`
}

type StatusConfiguration struct {
	// Address to serve /metrics and /status on. Empty disables the server.
	Address string `yaml:"address"`
}

type LoggingConfiguration struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfiguration returns a configuration with every default applied.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Intents: discord.IntentGuilds |
			discord.IntentGuildMessages |
			discord.IntentGuildMessageReactions |
			discord.IntentDirectMessages |
			discord.IntentDirectMessageReactions,
		Presence: discord.UpdateStatus{
			Status:     "online",
			Activities: []discord.Activity{},
		},
		Gateway: GatewayConfiguration{
			Compress:            true,
			LargeThreshold:      DefaultLargeThreshold,
			MaxHeartbeatStrikes: DefaultMaxHeartbeatStrikes,
			PollInterval:        DefaultPollInterval,
			MaxReconnectWait:    DefaultMaxReconnectWait,
		},
		REST: RESTConfiguration{
			BaseURL:     DefaultAPIURL,
			UserAgent:   DefaultUserAgent,
			Timeout:     DefaultRequestTimeout,
			RetryBudget: DefaultRetryBudget,
		},
		Events: EventsConfiguration{
			HandlerConcurrency: DefaultHandlerConcurrency,
		},
		Cache: CacheConfiguration{
			Messages:   true,
			MessageTTL: DefaultMessageTTL,
		},
		Logging: LoggingConfiguration{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadConfiguration reads a YAML file over the defaults and applies
// environment overrides.
func LoadConfiguration(path string) (*Configuration, error) {
	configuration := DefaultConfiguration()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadConfiguration, err)
	}

	err = yaml.Unmarshal(file, configuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeConfiguration, err)
	}

	configuration.ApplyEnvironment()

	return configuration, configuration.Validate()
}

// ApplyEnvironment overrides values from environment variables.
func (c *Configuration) ApplyEnvironment() {
	if token := os.Getenv(EnvironmentToken); token != "" {
		c.Token = token
	}
}

// Validate checks the configuration and fills zero values with defaults.
func (c *Configuration) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}

	if c.Sharding.ShardCount < 0 {
		return ErrInvalidShardCount
	}

	defaults := DefaultConfiguration()

	if c.Gateway.MaxHeartbeatStrikes <= 0 {
		c.Gateway.MaxHeartbeatStrikes = defaults.Gateway.MaxHeartbeatStrikes
	}

	if c.Gateway.PollInterval <= 0 {
		c.Gateway.PollInterval = defaults.Gateway.PollInterval
	}

	if c.Gateway.MaxReconnectWait <= 0 {
		c.Gateway.MaxReconnectWait = defaults.Gateway.MaxReconnectWait
	}

	if c.REST.BaseURL == "" {
		c.REST.BaseURL = defaults.REST.BaseURL
	}

	if c.REST.UserAgent == "" {
		c.REST.UserAgent = defaults.REST.UserAgent
	}

	if c.REST.Timeout <= 0 {
		c.REST.Timeout = defaults.REST.Timeout
	}

	if c.REST.RetryBudget <= 0 {
		c.REST.RetryBudget = defaults.REST.RetryBudget
	}

	if c.Events.HandlerConcurrency <= 0 {
		c.Events.HandlerConcurrency = defaults.Events.HandlerConcurrency
	}

	if c.Cache.MessageTTL <= 0 {
		c.Cache.MessageTTL = defaults.Cache.MessageTTL
	}

	return nil
}
