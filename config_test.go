package gamenight_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gamenight "github.com/WelcomerTeam/Gamenight"
	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestLoadConfiguration(t *testing.T) {
	path := writeConfig(t, `
token: abc
owner_id: 1234
intents: 513
sharding:
  shard_count: 4
  shard_ids: "0-1"
gateway:
  max_heartbeat_strikes: 5
  poll_interval: 100ms
rest:
  retry_budget: 30s
events:
  blacklist: [TYPING_START]
presence:
  status: idle
  activities:
    - name: Avalon
      type: 0
`)

	t.Setenv(gamenight.EnvironmentToken, "")

	configuration, err := gamenight.LoadConfiguration(path)
	require.NoError(t, err)

	assert.Equal(t, "abc", configuration.Token)
	assert.Equal(t, discord.Snowflake(1234), configuration.OwnerID)
	assert.Equal(t, discord.GatewayIntent(513), configuration.Intents)
	assert.Equal(t, int32(4), configuration.Sharding.ShardCount)
	assert.Equal(t, "0-1", configuration.Sharding.ShardIDs)
	assert.Equal(t, 5, configuration.Gateway.MaxHeartbeatStrikes)
	assert.Equal(t, 100*time.Millisecond, configuration.Gateway.PollInterval)
	assert.Equal(t, 30*time.Second, configuration.REST.RetryBudget)
	assert.Equal(t, []string{"TYPING_START"}, configuration.Events.Blacklist)
	assert.Equal(t, "idle", configuration.Presence.Status)
	require.Len(t, configuration.Presence.Activities, 1)
	assert.Equal(t, "Avalon", configuration.Presence.Activities[0].Name)

	// Untouched values keep their defaults.
	assert.Equal(t, gamenight.DefaultAPIURL, configuration.REST.BaseURL)
	assert.Equal(t, gamenight.DefaultMaxReconnectWait, configuration.Gateway.MaxReconnectWait)
}

func TestLoadConfigurationEnvironmentToken(t *testing.T) {
	path := writeConfig(t, "token: from-file\n")

	t.Setenv(gamenight.EnvironmentToken, "from-env")

	configuration, err := gamenight.LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", configuration.Token)
}

func TestLoadConfigurationMissingToken(t *testing.T) {
	path := writeConfig(t, "intents: 1\n")

	t.Setenv(gamenight.EnvironmentToken, "")

	_, err := gamenight.LoadConfiguration(path)
	assert.ErrorIs(t, err, gamenight.ErrMissingToken)
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	_, err := gamenight.LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, gamenight.ErrReadConfiguration)
}

func TestValidateFillsDefaults(t *testing.T) {
	t.Parallel()

	configuration := &gamenight.Configuration{Token: "abc"}

	require.NoError(t, configuration.Validate())
	assert.Equal(t, gamenight.DefaultMaxHeartbeatStrikes, configuration.Gateway.MaxHeartbeatStrikes)
	assert.Equal(t, gamenight.DefaultRetryBudget, configuration.REST.RetryBudget)
	assert.Equal(t, gamenight.DefaultPollInterval, configuration.Gateway.PollInterval)
	assert.Equal(t, gamenight.DefaultHandlerConcurrency, configuration.Events.HandlerConcurrency)
}
